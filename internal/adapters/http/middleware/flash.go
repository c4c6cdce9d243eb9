package middleware

import (
	"net/http"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// Flash levels.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

const flashCookieName = "eventbook_flash"

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Level   string
	Message string
}

// Flasher carries flashes across a redirect in a signed cookie.
type Flasher struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewFlasher creates a Flasher signing with hashKey (32 or 64 bytes recommended).
func NewFlasher(hashKey []byte, secure bool) *Flasher {
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(300)
	return &Flasher{codec: codec, secure: secure}
}

// Set queues a flash for the next page view.
func (f *Flasher) Set(w http.ResponseWriter, level, message string) {
	encoded, err := f.codec.Encode(flashCookieName, Flash{Level: level, Message: message})
	if err != nil {
		zap.L().Warn("flash_encode_failed", zap.Error(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending flash, if any, and clears it.
// POST: the flash cookie is expired whenever one was sent
func (f *Flasher) Pop(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return Flash{}, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	var flash Flash
	if err := f.codec.Decode(flashCookieName, cookie.Value, &flash); err != nil {
		return Flash{}, false
	}
	return flash, true
}
