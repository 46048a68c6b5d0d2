package handlers

import (
	"github.com/sirupsen/logrus"

	"aistudio/config"
	"aistudio/internal/orchestrator"
	"aistudio/internal/store"
	"aistudio/internal/worker"
)

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Logger     *logrus.Logger
	Core       *orchestrator.Core
	Store      store.Store
	Dispatcher *worker.Dispatcher
	Cfg        *config.Settings
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(core *orchestrator.Core, st store.Store, disp *worker.Dispatcher, cfg *config.Settings, logger *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		Logger:     logger,
		Core:       core,
		Store:      st,
		Dispatcher: disp,
		Cfg:        cfg,
	}
}
