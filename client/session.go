package client

import (
	"encoding/json"
	"log"
	"sort"

	"github.com/gofrs/uuid/v5"

	"github.com/Elko-Lemiso/collaborative-board/models"
	"github.com/Elko-Lemiso/collaborative-board/protocol"
)

// Sender pushes an event to the server. The websocket Socket implements
// it; tests substitute a recorder.
type Sender interface {
	Send(eventType string, data any) error
}

// Surface is the append-only drawing target strokes are rasterized onto.
// Local and remote segments go through the same call, so committed
// strokes are indistinguishable by origin.
type Surface interface {
	DrawSegment(from, to protocol.Point, color string, width float64)
}

type Mode int

const (
	ModeDraw Mode = iota
	ModeMove
	ModeSelect
	ModeSticker
)

// StickerEntry pairs the shared sticker state with its locally decoded
// image resource.
type StickerEntry struct {
	Sticker models.Sticker
	Image   Image
}

type gestureKind int

const (
	gestureNone gestureKind = iota
	gestureDrag
	gestureResize
	gestureRotate
)

type gesture struct {
	kind       gestureKind
	stickerId  string
	start      protocol.Point
	initial    models.Sticker
	handle     Handle
	startAngle float64
}

// Session is the client-side board state: the optimistic local copy of
// strokes and stickers, the presence roster, and the in-progress gesture.
// It is single-threaded by design; the embedding frontend calls it from
// its UI loop and feeds incoming transport messages to HandleMessage.
type Session struct {
	boardId  string
	username string
	sender   Sender
	surface  Surface
	images   *imageCache

	Viewport Viewport

	brushColor string
	brushWidth float64

	strokes   []models.Stroke
	stickers  map[string]*StickerEntry
	users     []string
	selected  string
	mode      Mode
	gesture   gesture
	drawing   bool
	lastPoint protocol.Point

	// OnJoinError is called when the server rejects a join, e.g. the
	// username is already active on the board.
	OnJoinError func(message string)
	// OnUsersUpdate is called with the full roster after every change.
	OnUsersUpdate func(users []string)
}

func NewSession(boardId string, username string, sender Sender, surface Surface, loader ImageLoader) *Session {
	return &Session{
		boardId:    boardId,
		username:   username,
		sender:     sender,
		surface:    surface,
		images:     newImageCache(loader),
		Viewport:   NewViewport(),
		brushColor: "#000000",
		brushWidth: 3,
		stickers:   make(map[string]*StickerEntry),
	}
}

func (s *Session) Join() {
	s.emit(protocol.EventJoinBoard, protocol.JoinBoard{BoardId: s.boardId, Username: s.username})
}

func (s *Session) Leave() {
	s.emit(protocol.EventLeaveBoard, protocol.LeaveBoard{BoardId: s.boardId, Username: s.username})
}

// SeedHistory installs the state fetched over REST at join time. Strokes
// are rasterized in order; the incremental draw events extend the same
// surface afterwards.
func (s *Session) SeedHistory(strokes []models.Stroke, stickers []models.Sticker) {
	s.strokes = append([]models.Stroke(nil), strokes...)
	for _, stroke := range strokes {
		s.rasterize(stroke)
	}
	for _, sticker := range stickers {
		s.stickers[sticker.Id] = &StickerEntry{
			Sticker: sticker,
			Image:   s.images.get(sticker.ImageUrl),
		}
	}
}

func (s *Session) SetBrush(color string, width float64) {
	s.brushColor = color
	s.brushWidth = width
}

// SetMode switches the active tool and clears any selection; selection
// is meaningless outside select mode and never broadcast.
func (s *Session) SetMode(mode Mode) {
	s.mode = mode
	s.selected = ""
	s.gesture = gesture{}
	s.drawing = false
}

func (s *Session) Mode() Mode       { return s.mode }
func (s *Session) Selected() string { return s.selected }
func (s *Session) Users() []string  { return append([]string(nil), s.users...) }
func (s *Session) StrokeCount() int { return len(s.strokes) }

// Stickers returns the live stickers in placement order for rendering.
func (s *Session) Stickers() []StickerEntry {
	entries := make([]StickerEntry, 0, len(s.stickers))
	for _, e := range s.stickers {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Sticker.Created == entries[j].Sticker.Created {
			return entries[i].Sticker.Id < entries[j].Sticker.Id
		}
		return entries[i].Sticker.Created < entries[j].Sticker.Created
	})
	return entries
}

// --- drawing ---

func (s *Session) BeginStroke(screenX, screenY float64) {
	if s.mode != ModeDraw {
		return
	}
	s.drawing = true
	s.lastPoint = s.Viewport.ScreenToVirtual(screenX, screenY)
}

// StrokeTo rasterizes the segment from the last sampled point locally,
// then emits it. Fire-and-forget: there is no rollback if the emit fails.
func (s *Session) StrokeTo(screenX, screenY float64) {
	if !s.drawing {
		return
	}
	from := s.lastPoint
	to := s.Viewport.ScreenToVirtual(screenX, screenY)
	s.lastPoint = to

	ev := protocol.Draw{
		BoardId: s.boardId,
		From:    from,
		To:      to,
		Color:   s.brushColor,
		Width:   s.brushWidth,
	}
	s.applyDraw(ev)
	s.emit(protocol.EventDraw, ev)
}

func (s *Session) EndStroke() {
	s.drawing = false
}

// --- stickers ---

// PlaceSticker optimistically adds a sticker centered at the screen
// position and emits add-sticker. The id is client-generated so the local
// entry and the eventual remote echoes key the same object.
func (s *Session) PlaceSticker(screenX, screenY float64, imageUrl string) models.Sticker {
	id, err := uuid.NewV4()
	if err != nil {
		log.Printf("Failed to generate sticker id: %v", err)
		return models.Sticker{}
	}

	p := s.Viewport.ScreenToVirtual(screenX, screenY)
	sticker := models.Sticker{
		Id:       id.String(),
		BoardId:  s.boardId,
		ImageUrl: imageUrl,
		X:        p.X,
		Y:        p.Y,
		Width:    100,
		Height:   100,
		Rotation: 0,
	}

	s.stickers[sticker.Id] = &StickerEntry{
		Sticker: sticker,
		Image:   s.images.get(imageUrl),
	}
	s.emit(protocol.EventAddSticker, protocol.AddSticker{BoardId: s.boardId, Sticker: sticker})
	return sticker
}

// SelectAt hit-tests stickers topmost first and selects the hit, if any.
func (s *Session) SelectAt(screenX, screenY float64) string {
	p := s.Viewport.ScreenToVirtual(screenX, screenY)
	entries := s.Stickers()
	s.selected = ""
	for i := len(entries) - 1; i >= 0; i-- {
		if hitTest(entries[i].Sticker, p) {
			s.selected = entries[i].Sticker.Id
			break
		}
	}
	return s.selected
}

func (s *Session) BeginDrag(screenX, screenY float64) {
	entry, ok := s.stickers[s.selected]
	if !ok {
		return
	}
	s.gesture = gesture{
		kind:      gestureDrag,
		stickerId: s.selected,
		start:     s.Viewport.ScreenToVirtual(screenX, screenY),
		initial:   entry.Sticker,
	}
}

func (s *Session) BeginResize(handle Handle, screenX, screenY float64) {
	entry, ok := s.stickers[s.selected]
	if !ok {
		return
	}
	s.gesture = gesture{
		kind:      gestureResize,
		stickerId: s.selected,
		start:     s.Viewport.ScreenToVirtual(screenX, screenY),
		initial:   entry.Sticker,
		handle:    handle,
	}
}

func (s *Session) BeginRotate(screenX, screenY float64) {
	entry, ok := s.stickers[s.selected]
	if !ok {
		return
	}
	center := protocol.Point{X: entry.Sticker.X, Y: entry.Sticker.Y}
	pointer := s.Viewport.ScreenToVirtual(screenX, screenY)
	s.gesture = gesture{
		kind:       gestureRotate,
		stickerId:  s.selected,
		initial:    entry.Sticker,
		startAngle: PointerAngle(center, pointer),
	}
}

// GestureTo advances the active gesture to the current pointer position,
// applies the result locally and emits an update-sticker. modifier is the
// held modifier key: aspect lock for resize, 15 degree snap for rotate.
func (s *Session) GestureTo(screenX, screenY float64, modifier bool) {
	entry, ok := s.stickers[s.gesture.stickerId]
	if !ok || s.gesture.kind == gestureNone {
		return
	}

	p := s.Viewport.ScreenToVirtual(screenX, screenY)
	updated := entry.Sticker

	switch s.gesture.kind {
	case gestureDrag:
		updated.X = s.gesture.initial.X + (p.X - s.gesture.start.X)
		updated.Y = s.gesture.initial.Y + (p.Y - s.gesture.start.Y)
	case gestureResize:
		updated = Resize(s.gesture.initial, s.gesture.handle, p.X-s.gesture.start.X, p.Y-s.gesture.start.Y, modifier)
	case gestureRotate:
		center := protocol.Point{X: entry.Sticker.X, Y: entry.Sticker.Y}
		updated.Rotation = Rotate(s.gesture.initial.Rotation, s.gesture.startAngle, PointerAngle(center, p), modifier)
	}

	entry.Sticker = updated
	s.emitStickerGeometry(updated)
}

// EndGesture re-emits the final geometry so the committed state is the
// last write even if an in-progress update was dropped.
func (s *Session) EndGesture() {
	if entry, ok := s.stickers[s.gesture.stickerId]; ok && s.gesture.kind != gestureNone {
		s.emitStickerGeometry(entry.Sticker)
	}
	s.gesture = gesture{}
}

func (s *Session) DeleteSelected() {
	if s.selected == "" {
		return
	}
	id := s.selected
	delete(s.stickers, id)
	s.selected = ""
	s.emit(protocol.EventDeleteSticker, protocol.DeleteSticker{BoardId: s.boardId, StickerId: id})
}

func (s *Session) emitStickerGeometry(sticker models.Sticker) {
	x, y, w, h, r := sticker.X, sticker.Y, sticker.Width, sticker.Height, sticker.Rotation
	s.emit(protocol.EventUpdateSticker, protocol.UpdateSticker{
		BoardId:   s.boardId,
		StickerId: sticker.Id,
		Patch: models.StickerPatch{
			X:        &x,
			Y:        &y,
			Width:    &w,
			Height:   &h,
			Rotation: &r,
		},
	})
}

// --- remote events ---

// HandleMessage reconciles one server event into local state. The server
// never echoes a connection's own events, so everything arriving here is
// either roster bookkeeping or a remote peer's edit; sticker events
// overwrite whole entries (last writer wins), draw events append.
func (s *Session) HandleMessage(raw []byte) {
	var msg protocol.Envelope
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Invalid server message: %v", err)
		return
	}

	switch msg.Type {
	case protocol.EventJoinError:
		var ev protocol.JoinError
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		if s.OnJoinError != nil {
			s.OnJoinError(ev.Message)
		}

	case protocol.EventUsersUpdate:
		var ev protocol.UsersUpdate
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.BoardId != s.boardId {
			return
		}
		s.users = ev.Users
		if s.OnUsersUpdate != nil {
			s.OnUsersUpdate(s.Users())
		}

	case protocol.EventDraw:
		var ev protocol.Draw
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.BoardId != s.boardId {
			return
		}
		s.applyDraw(ev)

	case protocol.EventAddSticker:
		var ev protocol.AddSticker
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.BoardId != s.boardId {
			return
		}
		s.mergeSticker(ev.Sticker)

	case protocol.EventUpdateSticker:
		var ev protocol.UpdateSticker
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.BoardId != s.boardId {
			return
		}
		entry, ok := s.stickers[ev.StickerId]
		if !ok {
			// Patch raced ahead of the add or behind a delete; the next
			// full state wins either way
			return
		}
		sticker := entry.Sticker
		ev.Patch.Apply(&sticker)
		s.mergeSticker(sticker)

	case protocol.EventDeleteSticker:
		var ev protocol.DeleteSticker
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.BoardId != s.boardId {
			return
		}
		delete(s.stickers, ev.StickerId)
		if s.selected == ev.StickerId {
			s.selected = ""
		}

	default:
		log.Printf("Unknown server event: %s", msg.Type)
	}
}

// mergeSticker overwrites the entry, reusing the decoded image when the
// URL is unchanged so remote updates never refetch.
func (s *Session) mergeSticker(sticker models.Sticker) {
	if existing, ok := s.stickers[sticker.Id]; ok && existing.Sticker.ImageUrl == sticker.ImageUrl {
		existing.Sticker = sticker
		return
	}
	s.stickers[sticker.Id] = &StickerEntry{
		Sticker: sticker,
		Image:   s.images.get(sticker.ImageUrl),
	}
}

func (s *Session) applyDraw(ev protocol.Draw) {
	s.strokes = append(s.strokes, models.Stroke{
		BoardId: ev.BoardId,
		FromX:   ev.From.X,
		FromY:   ev.From.Y,
		ToX:     ev.To.X,
		ToY:     ev.To.Y,
		Color:   ev.Color,
		Width:   ev.Width,
	})
	if s.surface != nil {
		s.surface.DrawSegment(ev.From, ev.To, ev.Color, ev.Width)
	}
}

func (s *Session) rasterize(stroke models.Stroke) {
	if s.surface != nil {
		s.surface.DrawSegment(
			protocol.Point{X: stroke.FromX, Y: stroke.FromY},
			protocol.Point{X: stroke.ToX, Y: stroke.ToY},
			stroke.Color,
			stroke.Width,
		)
	}
}

func (s *Session) emit(eventType string, data any) {
	if err := s.sender.Send(eventType, data); err != nil {
		log.Printf("Failed to send %s: %v", eventType, err)
	}
}
