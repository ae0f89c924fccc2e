package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/Elko-Lemiso/collaborative-board/models"
	"github.com/Elko-Lemiso/collaborative-board/protocol"
	"github.com/Elko-Lemiso/collaborative-board/service"
	"github.com/Elko-Lemiso/collaborative-board/store"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

type registerRequest struct {
	Username string `json:"username"`
}

type registerResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.Service.Register(req.Username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.sendResponse(w, registerResponse{
		Username: req.Username,
		Token:    token,
	})
}

func (h *Handler) HandleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.Service.ListBoards(r.Context())
	if err != nil {
		log.Printf("ListBoards failed: %v", err)
		http.Error(w, "failed to list boards", http.StatusInternalServerError)
		return
	}
	h.sendResponse(w, boards)
}

type createBoardRequest struct {
	Name string `json:"name"`
}

func (h *Handler) HandleCreateBoard(w http.ResponseWriter, r *http.Request) {
	if !h.authenticated(w, r) {
		return
	}

	var req createBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	board, err := h.Service.CreateBoard(r.Context(), req.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.sendResponse(w, board)
}

func (h *Handler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.Service.GetBoard(r.Context(), r.PathValue("boardId"))
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			http.Error(w, "board not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.sendResponse(w, board)
}

func (h *Handler) HandleListStrokes(w http.ResponseWriter, r *http.Request) {
	strokes, err := h.Service.LoadStrokes(r.Context(), r.PathValue("boardId"))
	if err != nil {
		log.Printf("LoadStrokes failed: %v", err)
		http.Error(w, "failed to load strokes", http.StatusInternalServerError)
		return
	}
	if strokes == nil {
		strokes = []models.Stroke{}
	}
	h.sendResponse(w, strokes)
}

func (h *Handler) HandleListStickers(w http.ResponseWriter, r *http.Request) {
	stickers, err := h.Service.LoadStickers(r.Context(), r.PathValue("boardId"))
	if err != nil {
		log.Printf("LoadStickers failed: %v", err)
		http.Error(w, "failed to load stickers", http.StatusInternalServerError)
		return
	}
	if stickers == nil {
		stickers = []models.Sticker{}
	}
	h.sendResponse(w, stickers)
}

func (h *Handler) HandleCreateSticker(w http.ResponseWriter, r *http.Request) {
	if !h.authenticated(w, r) {
		return
	}

	var sticker models.Sticker
	if err := json.NewDecoder(r.Body).Decode(&sticker); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// REST-originated events carry no origin connection, so every live
	// client receives the broadcast
	created, err := h.Service.AddSticker(r.Context(), "", protocol.AddSticker{
		BoardId: r.PathValue("boardId"),
		Sticker: sticker,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.sendResponse(w, created)
}

func (h *Handler) HandleUpdateSticker(w http.ResponseWriter, r *http.Request) {
	if !h.authenticated(w, r) {
		return
	}

	var patch models.StickerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.Service.UpdateSticker(r.Context(), "", protocol.UpdateSticker{
		BoardId:   r.PathValue("boardId"),
		StickerId: r.PathValue("stickerId"),
		Patch:     patch,
	})
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			http.Error(w, "sticker not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.sendResponse(w, updated)
}

type deleteStickerResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) HandleDeleteSticker(w http.ResponseWriter, r *http.Request) {
	if !h.authenticated(w, r) {
		return
	}

	err := h.Service.DeleteSticker(r.Context(), "", protocol.DeleteSticker{
		BoardId:   r.PathValue("boardId"),
		StickerId: r.PathValue("stickerId"),
	})
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			http.Error(w, "sticker not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.sendResponse(w, deleteStickerResponse{Success: true})
}

type uploadResponse struct {
	ImageUrl string `json:"imageUrl"`
}

const maxUploadRequestBytes = 6 * 1024 * 1024 // upload limit plus form overhead

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if !h.authenticated(w, r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequestBytes)
	if err := r.ParseMultipartForm(maxUploadRequestBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("sticker")
	if err != nil {
		http.Error(w, "sticker field required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	url, err := h.Service.UploadImage(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.sendResponse(w, uploadResponse{ImageUrl: url})
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// authenticated checks the bearer token on mutating endpoints. Reads stay
// open; boards are public.
func (h *Handler) authenticated(w http.ResponseWriter, r *http.Request) bool {
	if _, err := h.Service.AuthenticateToken(h.getTokenFromAuthHeader(r)); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return false
	}
	return true
}

func (h *Handler) getTokenFromAuthHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, prefix)
}
