package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/papapumpkin/critpath/internal/config"
	"github.com/papapumpkin/critpath/internal/logging"
	"github.com/papapumpkin/critpath/internal/project"
	"github.com/papapumpkin/critpath/internal/store"
	"github.com/papapumpkin/critpath/internal/telemetry"
	"github.com/papapumpkin/critpath/internal/ui"
)

// session bundles what every command needs: configuration, the printer,
// the operational logger and the telemetry stream.
type session struct {
	cfg     config.Config
	printer *ui.Printer
	events  *telemetry.Emitter
	log     *logrus.Entry
}

func newSession(component string) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.JSON, nil); err != nil {
		return nil, err
	}

	sess := &session{
		cfg:     cfg,
		printer: ui.New(),
		log:     logging.For(component),
	}
	if cfg.Telemetry.Path != "" {
		em, err := telemetry.NewEmitter(cfg.Telemetry.Path)
		if err != nil {
			// Telemetry is best-effort.
			sess.log.WithError(err).Warn("telemetry disabled")
		} else {
			sess.events = em
		}
	}
	return sess, nil
}

func (sess *session) Close() {
	if err := sess.events.Close(); err != nil {
		sess.log.WithError(err).Warn("closing telemetry")
	}
}

// record emits a telemetry event, logging instead of failing on error.
func (sess *session) record(kind, projectName, taskID string, data any) {
	if err := sess.events.Record(kind, projectName, taskID, data); err != nil {
		sess.log.WithError(err).Warn("telemetry write failed")
	}
}

func (sess *session) defaults() project.Defaults {
	return project.Defaults{
		ExcludeWeekends: sess.cfg.Calendar.ExcludeWeekends,
		MaxHorizonDays:  sess.cfg.Calendar.MaxHorizonDays,
	}
}

// loadFile reads and resolves a project file.
func (sess *session) loadFile(path string) (*project.Project, error) {
	f, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	p, err := f.Resolve(sess.defaults())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	sess.log.WithFields(logrus.Fields{
		"file":  path,
		"tasks": len(p.Tasks),
		"links": len(p.Dependencies),
	}).Debug("project loaded")
	return p, nil
}

func (sess *session) openStore(ctx context.Context) (*store.Store, error) {
	s, err := store.Open(ctx, sess.cfg.Store.Driver, sess.cfg.Store.DSN, sess.cfg.Store.CacheSize)
	if err != nil {
		return nil, err
	}
	sess.log.WithField("driver", sess.cfg.Store.Driver).Debug("store opened")
	return s, nil
}

// loadStored fetches a project from the store.
func (sess *session) loadStored(ctx context.Context, id string) (*project.Project, error) {
	s, err := sess.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.LoadProject(ctx, id)
}

// projectID derives a store ID from a file name: lower case, spaces to
// dashes, extension dropped.
func projectID(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(base)), " ", "-")
}
