package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"

	"github.com/xenking/smartstore/internal/appstate"
	"github.com/xenking/smartstore/internal/session"
)

// Login serves POST /api/session. The upstream identity provider has already
// authenticated the user; this endpoint stores the issued tokens and signs
// the user into the session state.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	tokens, user, err := decodeLoginRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if tokens.Access == "" {
		writeError(w, http.StatusBadRequest, "access_token is required")
		return
	}

	if err := h.sessions.SetTokens(ctx, sid, tokens); err != nil {
		h.lg.Error("store session tokens", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store session")
		return
	}

	st, err := h.states.Dispatch(ctx, sid, appstate.SetUser{User: user})
	if err != nil {
		h.lg.Error("sign user in", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "update state")
		return
	}

	writeState(w, st)
}

// Logout serves DELETE /api/session. The session's tokens, cart, checkout
// flow, wishlist, and state are all dropped; a repeated logout is a no-op.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	if err := h.sessions.Clear(ctx, sid); err != nil {
		h.lg.Error("clear session tokens", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "clear session")
		return
	}

	for name, drop := range map[string]func() error{
		"cart":     func() error { return h.carts.Delete(ctx, sid) },
		"checkout": func() error { return h.flows.Delete(ctx, sid) },
		"wishlist": func() error { return h.wishlists.Delete(ctx, sid) },
		"state":    func() error { return h.states.Delete(ctx, sid) },
	} {
		if err := drop(); err != nil {
			h.lg.Warn("drop session data",
				zap.String("session_id", sid),
				zap.String("kind", name),
				zap.Error(err))
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetState serves GET /api/session/state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(ctx)

	st, err := h.states.Load(ctx, sid)
	if err != nil {
		h.lg.Error("load app state", zap.String("session_id", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load state")
		return
	}

	// Tokens expire independently of the state key. A state still carrying a
	// user without backing tokens is a stale login, not an authenticated one.
	if st.Authenticated {
		if _, err := h.sessions.GetToken(ctx, sid); errors.Is(err, session.ErrNoSession) {
			st = appstate.Reduce(st, appstate.SetUser{User: nil})
		} else if err != nil {
			h.lg.Error("load session tokens", zap.String("session_id", sid), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "load session")
			return
		}
	}

	writeState(w, st)
}

func writeState(w http.ResponseWriter, st appstate.State) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		if st.User != nil {
			e.FieldStart("user")
			e.ObjStart()
			e.FieldStart("id")
			e.Str(st.User.ID)
			e.FieldStart("email")
			e.Str(st.User.Email)
			e.FieldStart("first_name")
			e.Str(st.User.FirstName)
			e.FieldStart("last_name")
			e.Str(st.User.LastName)
			e.FieldStart("is_admin")
			e.Bool(st.User.Admin)
			e.ObjEnd()
		}
		e.FieldStart("cart_count")
		e.Int(st.CartCount)
		e.FieldStart("wishlist_count")
		e.Int(st.WishlistCount)
		e.FieldStart("authenticated")
		e.Bool(st.Authenticated)
		e.ObjEnd()
	})
}

func decodeLoginRequest(data []byte) (session.Tokens, *appstate.User, error) {
	var (
		tokens session.Tokens
		user   *appstate.User
	)
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "access_token":
			v, err := d.Str()
			if err != nil {
				return err
			}
			tokens.Access = v
			return nil
		case "refresh_token":
			v, err := d.Str()
			if err != nil {
				return err
			}
			tokens.Refresh = v
			return nil
		case "user":
			user = &appstate.User{}
			return d.Obj(func(d *jx.Decoder, key string) error {
				target := map[string]*string{
					"id":         &user.ID,
					"email":      &user.Email,
					"first_name": &user.FirstName,
					"last_name":  &user.LastName,
				}[key]
				if target != nil {
					v, err := d.Str()
					if err != nil {
						return err
					}
					*target = v
					return nil
				}
				if key == "is_admin" {
					v, err := d.Bool()
					if err != nil {
						return err
					}
					user.Admin = v
					return nil
				}
				return d.Skip()
			})
		default:
			return d.Skip()
		}
	})
	return tokens, user, err
}
