package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Ntuthuko-dev/Web-Solution/internal/logging"
	"github.com/Ntuthuko-dev/Web-Solution/internal/metrics"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/repository"
)

// Operator-facing messages.
const (
	MsgLoadFailed      = "Failed to load projects. Check your internet connection."
	MsgAdded           = "Project added and visible to all visitors!"
	MsgAddFailed       = "Failed to save. Check your store configuration."
	MsgDeleted         = "Project deleted."
	MsgDeleteFailed    = "Delete failed. Check your connection."
	MsgImageRequired   = "Please upload an image or enter an image URL."
	MsgTitleRequired   = "Please enter a project title."
	MsgProjectNotFound = "Project not found."
)

// Presenter receives the collection after every load and mutation.
type Presenter interface {
	Render(projects domain.Snapshot)
	RenderManagementList(projects domain.Snapshot)
	RenderLoadError(message string)
	Notify(message string, severity domain.Severity)
}

type idObserver interface {
	Observe(id string)
}

// ProjectService owns the in-memory project collection and keeps it in step
// with the persistence backend. Mutations are applied optimistically, then
// persisted as a whole snapshot, then either committed or rolled back.
//
// mu serialises Load, AddProject and DeleteProject, so at most one write is in
// flight. The collection itself is guarded by stateMu; readers only ever see a
// committed collection.
type ProjectService struct {
	mu sync.Mutex

	stateMu    sync.RWMutex
	collection domain.Snapshot
	loaded     bool

	backend   repository.Backend
	presenter Presenter
	ids       domain.IDGenerator
	logger    *zap.Logger
}

// NewProjectService creates a new project service
func NewProjectService(backend repository.Backend, presenter Presenter, ids domain.IDGenerator, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		collection: domain.Snapshot{},
		backend:    backend,
		presenter:  presenter,
		ids:        ids,
		logger:     logger,
	}
}

// Projects returns a copy of the committed collection.
func (s *ProjectService) Projects() domain.Snapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.collection.Clone()
}

// Loaded reports whether a load has ever succeeded.
func (s *ProjectService) Loaded() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.loaded
}

// Mode is "remote" or "local", depending on the backend chosen at start-up.
func (s *ProjectService) Mode() string {
	return s.backend.Mode()
}

// Load replaces the collection with the backend's current snapshot. On
// failure nothing falls back anywhere: the collection keeps whatever it held
// (empty before the first successful load) and the presenter is told.
func (s *ProjectService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logging.FromContext(ctx, s.logger).With(zap.String("operation", "load"), zap.String("backend", s.backend.Name()))

	projects, err := s.backend.Fetch(ctx)
	if err != nil {
		log.Error("failed to load projects", zap.Error(err))
		if !s.Loaded() {
			s.presenter.RenderLoadError(MsgLoadFailed)
		}
		s.presenter.Notify(MsgLoadFailed, domain.SeverityError)
		return fmt.Errorf("%w: %w", domain.ErrLoadFailed, err)
	}

	projects = projects.Clone()
	if obs, ok := s.ids.(idObserver); ok {
		for _, p := range projects {
			obs.Observe(p.ID)
		}
	}

	s.commit(projects, true)
	log.Info("projects loaded", zap.Int("count", len(projects)), zap.String("mode", s.backend.Mode()))

	s.render(projects)
	return nil
}

// AddProject appends a new project and persists the whole collection. If
// persisting fails the collection is restored to exactly what it was.
func (s *ProjectService) AddProject(ctx context.Context, draft domain.Draft) (domain.Project, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		metrics.RecordMutation("add", "rejected")
		if errors.Is(err, domain.ErrImageRequired) {
			s.presenter.Notify(MsgImageRequired, domain.SeverityError)
		} else {
			s.presenter.Notify(MsgTitleRequired, domain.SeverityError)
		}
		return domain.Project{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := logging.FromContext(ctx, s.logger).With(zap.String("operation", "add_project"))

	before := s.Projects()
	project := draft.Build(s.ids.NewID())
	pending := append(before.Clone(), project)

	if err := s.backend.Persist(ctx, pending); err != nil {
		log.Error("failed to persist new project, rolled back", zap.String("id", project.ID), zap.Error(err))
		metrics.RecordMutation("add", "rolled_back")
		s.presenter.Notify(MsgAddFailed, domain.SeverityError)
		return domain.Project{}, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}

	s.commit(pending, false)
	metrics.RecordMutation("add", "committed")
	log.Info("project added", zap.String("id", project.ID), zap.Int("count", len(pending)))

	s.render(pending)
	s.presenter.Notify(MsgAdded, domain.SeveritySuccess)
	return project, nil
}

// DeleteProject removes the project with the given id and persists the whole
// collection. On failure the previous collection, order included, is kept.
// An unknown id is not persisted and returns ErrProjectNotFound.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logging.FromContext(ctx, s.logger).With(zap.String("operation", "delete_project"), zap.String("id", id))

	backup := s.Projects()
	if backup.IndexOf(id) < 0 {
		log.Warn("delete of unknown project ignored")
		return domain.ErrProjectNotFound
	}

	pending := backup.Without(id)
	if err := s.backend.Persist(ctx, pending); err != nil {
		log.Error("failed to persist deletion, rolled back", zap.Error(err))
		metrics.RecordMutation("delete", "rolled_back")
		s.presenter.Notify(MsgDeleteFailed, domain.SeverityError)
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}

	s.commit(pending, false)
	metrics.RecordMutation("delete", "committed")
	log.Info("project deleted", zap.Int("count", len(pending)))

	s.render(pending)
	s.presenter.Notify(MsgDeleted, domain.SeveritySuccess)
	return nil
}

func (s *ProjectService) commit(projects domain.Snapshot, markLoaded bool) {
	s.stateMu.Lock()
	s.collection = projects
	if markLoaded {
		s.loaded = true
	}
	s.stateMu.Unlock()
	metrics.SetCollectionSize(len(projects))
}

func (s *ProjectService) render(projects domain.Snapshot) {
	s.presenter.Render(projects.Clone())
	s.presenter.RenderManagementList(projects.Clone())
}
