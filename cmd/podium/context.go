package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"podium/internal/archive"
	"podium/internal/config"
	"podium/internal/history"
	"podium/internal/logging"
	"podium/internal/workflow"
)

type commandContext struct {
	configFlag  *string
	jsonFlag    *bool
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	storeOnce sync.Once
	store     *history.Store
	storeErr  error
}

func newCommandContext(configFlag *string, jsonFlag, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		jsonFlag:    jsonFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

// loggerValue returns the CLI logger. Logger construction failures fall back
// to a no-op logger so a broken log directory never blocks a command.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg, c.verbose())
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) historyStore() (*history.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		c.store, c.storeErr = history.Open(cfg)
	})
	return c.store, c.storeErr
}

// newCoach wires the workflow coach with history, archive, and recorder.
func (c *commandContext) newCoach(withRecorder bool, extra ...workflow.Option) (*workflow.Coach, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := c.historyStore()
	if err != nil {
		return nil, err
	}
	logger := c.loggerValue()
	opts := []workflow.Option{workflow.WithLogger(logger)}
	clipArchive, err := archive.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if clipArchive != nil {
		opts = append(opts, workflow.WithArchive(clipArchive))
	}
	if withRecorder {
		opts = append(opts, workflow.WithRecorder(workflow.NewRecorder(cfg, logger)))
	}
	return workflow.NewCoach(cfg, store, append(opts, extra...)...), nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
