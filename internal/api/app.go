package api

import (
	"github.com/zmemovies/rue-track/internal"
	"github.com/zmemovies/rue-track/internal/service"
)

type App interface {
	Logger() internal.Logger
	Tracker() *service.Tracker
}
