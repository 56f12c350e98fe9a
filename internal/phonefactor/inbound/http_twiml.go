package inbound

import (
	"encoding/xml"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/veriphone/veriphone/internal/phonefactor/usecase"
)

type twimlResponse struct {
	XMLName xml.Name   `xml:"Response"`
	Says    []twimlSay `xml:"Say"`
}

type twimlSay struct {
	Voice    string `xml:"voice,attr"`
	Language string `xml:"language,attr"`
	Text     string `xml:",chardata"`
}

// TwiML serves the spoken-script document the telephony provider fetches
// mid-call. It is unauthenticated and gated only by the single-use nonce, so
// every rejection is silent: a status code and no body, leaking nothing
// about which check failed.
func (h *HTTPEndpoint) TwiML() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		userID, err := strconv.ParseInt(query.Get("user"), 10, 64)
		if err != nil || userID <= 0 {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		resp, err := h.uc.IssueScript(r.Context(), usecase.IssueScriptInput{
			UserID: userID,
			Nonce:  query.Get("nonce"),
		})
		if err != nil {
			if errors.Is(err, usecase.ErrScriptRejected) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		doc := twimlResponse{Says: make([]twimlSay, 0, len(resp.Phrases))}
		for _, phrase := range resp.Phrases {
			doc.Says = append(doc.Says, twimlSay{
				Voice:    resp.Voice,
				Language: resp.Language,
				Text:     phrase,
			})
		}

		body, err := xml.Marshal(doc)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to marshal twiml response", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(append([]byte(xml.Header), body...)); err != nil {
			slog.ErrorContext(r.Context(), "failed to write twiml response", "error", err)
		}
	})
}
