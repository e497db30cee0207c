/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/partyfun/games/content"
)

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	return w.Write(append(data, '\n'))
}

func serveGameList(cfg *Config, catalog *content.Catalog, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		written, err := writeJSON(cfg, w, http.StatusOK, catalog.Games())
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Game list (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveRandomCard(cfg *Config, catalog *content.Catalog, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		id := p.ByName("id")

		var (
			written int
			err     error
		)

		card, cardErr := catalog.RandomCard(id)
		switch {
		case cardErr == nil:
			written, err = writeJSON(cfg, w, http.StatusOK, card)
		case errors.Is(cardErr, content.ErrUnknownGame):
			written, err = writeJSON(cfg, w, http.StatusNotFound, apiError{Error: cardErr.Error()})
		case errors.Is(cardErr, content.ErrGameDisabled):
			written, err = writeJSON(cfg, w, http.StatusForbidden, apiError{Error: cardErr.Error()})
		default:
			written, err = writeJSON(cfg, w, http.StatusServiceUnavailable, apiError{Error: cardErr.Error()})
		}
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Card from %q (%s) to %s in %s",
			id,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveTopics(cfg *Config, catalog *content.Catalog, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		written, err := writeJSON(cfg, w, http.StatusOK, catalog.Topics())
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Topic list (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func registerAPI(cfg *Config, catalog *content.Catalog, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/api/games", serveGameList(cfg, catalog, errs))
	mux.GET(cfg.prefix+"/api/games/:id/card", serveRandomCard(cfg, catalog, errs))
	mux.GET(cfg.prefix+"/api/topics", serveTopics(cfg, catalog, errs))
}
