package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/Elko-Lemiso/collaborative-board/models"
)

// APIClient wraps the server's REST surface: registration, board listing,
// history fetches for SeedHistory, and sticker image uploads.
type APIClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http.DefaultClient,
	}
}

// SetToken installs the identity token used on mutating requests.
func (c *APIClient) SetToken(token string) {
	c.token = token
}

type registerResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (c *APIClient) Register(ctx context.Context, username string) (string, error) {
	var resp registerResponse
	err := c.doJSON(ctx, http.MethodPost, "/register", map[string]string{"username": username}, &resp)
	if err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

func (c *APIClient) CreateBoard(ctx context.Context, name string) (models.Board, error) {
	var board models.Board
	err := c.doJSON(ctx, http.MethodPost, "/boards", map[string]string{"name": name}, &board)
	return board, err
}

func (c *APIClient) ListBoards(ctx context.Context) ([]models.Board, error) {
	var boards []models.Board
	err := c.doJSON(ctx, http.MethodGet, "/boards", nil, &boards)
	return boards, err
}

func (c *APIClient) FetchStrokes(ctx context.Context, boardId string) ([]models.Stroke, error) {
	var strokes []models.Stroke
	err := c.doJSON(ctx, http.MethodGet, "/boards/"+boardId+"/strokes", nil, &strokes)
	return strokes, err
}

func (c *APIClient) FetchStickers(ctx context.Context, boardId string) ([]models.Sticker, error) {
	var stickers []models.Sticker
	err := c.doJSON(ctx, http.MethodGet, "/boards/"+boardId+"/stickers", nil, &stickers)
	return stickers, err
}

type uploadResponse struct {
	ImageUrl string `json:"imageUrl"`
}

// UploadImage pushes a sticker image for a board and returns the URL to
// place it by.
func (c *APIClient) UploadImage(ctx context.Context, boardId string, filename string, contentType string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="sticker"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/boards/"+boardId+"/stickers/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed: %s", strings.TrimSpace(string(msg)))
	}

	var uploadResp uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", err
	}
	return uploadResp.ImageUrl, nil
}

func (c *APIClient) doJSON(ctx context.Context, method string, path string, reqBody any, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %s", method, path, strings.TrimSpace(string(msg)))
	}

	if respBody == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(respBody)
}

func (c *APIClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
