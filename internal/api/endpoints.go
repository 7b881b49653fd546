package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/idilsaglam/backlog/internal/model"
)

// Login exchanges credentials for the user record.
func (c *Client) Login(ctx context.Context, cred model.Credentials) (model.User, error) {
	req, err := jsonRequest(http.MethodPost, "/api/Login/login", cred)
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	if err := c.send(ctx, req, &u); err != nil {
		return model.User{}, err
	}
	if err := u.Validate(); err != nil {
		return model.User{}, fmt.Errorf("%w: login: %w", ErrDecode, err)
	}
	return u, nil
}

func (c *Client) Register(ctx context.Context, u model.NewUser) error {
	req, err := jsonRequest(http.MethodPost, "/api/Usuario", u)
	if err != nil {
		return err
	}
	return c.send(ctx, req, nil)
}

// GetUser fetches a user; a missing user is a *StatusError with 404.
func (c *Client) GetUser(ctx context.Context, id int64) (model.User, error) {
	return getOne[model.User](ctx, c, "/api/Usuario/"+strconv.FormatInt(id, 10))
}

func (c *Client) UpdateProfile(ctx context.Context, userID int64, p model.ProfileUpdate) error {
	req, err := jsonRequest(http.MethodPut, fmt.Sprintf("/api/Usuario/%d/perfil", userID), p)
	if err != nil {
		return err
	}
	return c.send(ctx, req, nil)
}

// UploadPhoto sends a profile picture as multipart field "arquivo" and returns its URL path.
func (c *Client) UploadPhoto(ctx context.Context, userID int64, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="arquivo"; filename=%q`, filename))
	h.Set("Content-Type", http.DetectContentType(data))
	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("multipart: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("multipart: %w", err)
	}

	req := request{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/api/Usuario/%d/foto", userID),
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	}
	var up model.PhotoUpload
	if err := c.send(ctx, req, &up); err != nil {
		return "", err
	}
	if err := up.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return up.URL, nil
}

func (c *Client) ChangePassword(ctx context.Context, userID int64, p model.PasswordChange) error {
	req, err := jsonRequest(http.MethodPatch, fmt.Sprintf("/api/Usuario/%d/alterar-senha", userID), p)
	if err != nil {
		return err
	}
	return c.send(ctx, req, nil)
}

// ListBacklog returns every backlog item of the user, finished ones included.
func (c *Client) ListBacklog(ctx context.Context, userID int64) ([]model.BacklogItem, error) {
	q := url.Values{"usuarioId": {strconv.FormatInt(userID, 10)}}
	return getList[model.BacklogItem](ctx, c, "/api/ItemBacklog?"+q.Encode())
}

func (c *Client) GetItem(ctx context.Context, id int64) (model.BacklogItem, error) {
	return getOne[model.BacklogItem](ctx, c, "/api/ItemBacklog/"+strconv.FormatInt(id, 10))
}

func (c *Client) UpdateItem(ctx context.Context, u model.ItemUpdate) error {
	req, err := jsonRequest(http.MethodPut, "/api/ItemBacklog/"+strconv.FormatInt(u.ID, 10), u)
	if err != nil {
		return err
	}
	return c.send(ctx, req, nil)
}

// AddItem puts a catalog game on the user's backlog at rank 1 with no progress.
func (c *Client) AddItem(ctx context.Context, userID, gameID int64) error {
	req, err := jsonRequest(http.MethodPost, "/api/ItemBacklog", model.NewBacklogItem{
		GameID:    gameID,
		UserID:    userID,
		OrderRank: 1,
	})
	if err != nil {
		return err
	}
	return c.send(ctx, req, nil)
}

// ReorderBacklog submits the complete ordered id list. Ranks are assigned by the backend.
func (c *Client) ReorderBacklog(ctx context.Context, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	req, err := jsonRequest(http.MethodPatch, "/api/ItemBacklog/reorder", model.ReorderRequest{ItemIDs: ids})
	if err != nil {
		return err
	}
	return c.send(ctx, req, nil)
}

func (c *Client) ListGames(ctx context.Context) ([]model.Game, error) {
	return getList[model.Game](ctx, c, "/api/Jogo")
}

func (c *Client) SteamLibrary(ctx context.Context, steamID string) ([]model.SteamGame, error) {
	return getList[model.SteamGame](ctx, c, "/api/Steam/library/"+url.PathEscape(steamID))
}

func (c *Client) ImportSteam(ctx context.Context, batch model.SteamImport) error {
	req, err := jsonRequest(http.MethodPost, "/api/ItemBacklog/importar-lote", batch)
	if err != nil {
		return err
	}
	return c.send(ctx, req, nil)
}
