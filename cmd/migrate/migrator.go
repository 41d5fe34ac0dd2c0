package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"studio-cms/internal/cms/adapter/persistence"
	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/cms/usecase"
	"studio-cms/internal/shared/logger"
)

// ErrNoRemote is returned by to-remote when no remote backend resolved.
var ErrNoRemote = errors.New("no remote storage configured; set KV_REST_API_URL, REDIS_URL or MONGODB_URI")

// Migrator runs one-off maintenance commands against the storage adapter.
type Migrator struct {
	store *persistence.Adapter
	uc    *usecase.CMSUsecase
	out   io.Writer
	log   logger.Logger
}

// NewMigrator builds a migrator printing progress to out.
func NewMigrator(store *persistence.Adapter, out io.Writer, log logger.Logger) *Migrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Migrator{
		store: store,
		uc:    usecase.NewCMSUsecase(store, log),
		out:   out,
		log:   log,
	}
}

// Run dispatches a command by name.
func (m *Migrator) Run(ctx context.Context, command string) error {
	switch command {
	case "to-remote":
		return m.ToRemote(ctx)
	case "taxonomy":
		return m.Taxonomy(ctx)
	case "taxonomy-report":
		return m.TaxonomyReport(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// ToRemote copies each local collection file verbatim into the remote backend.
func (m *Migrator) ToRemote(ctx context.Context) error {
	remote := m.store.Remote()
	if remote == nil {
		return ErrNoRemote
	}
	local := m.store.Local()
	fmt.Fprintf(m.out, "Migrating %s into %s\n\n", local.Dir(), remote.Name())

	migrated := 0
	for _, collection := range model.Collections {
		name := model.FileName(collection)
		value, err := local.Get(ctx, collection)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if value == nil {
			fmt.Fprintf(m.out, "Skipping %s (file not found)\n", name)
			continue
		}
		if !json.Valid(value) {
			return fmt.Errorf("%s is not valid JSON", name)
		}
		if err := remote.Set(ctx, model.StorageKey(collection), value); err != nil {
			return fmt.Errorf("write %s: %w", collection, err)
		}
		migrated++
		fmt.Fprintf(m.out, "Migrated %s (key: %s)\n   -> %s\n", name, model.StorageKey(collection), describe(value))
	}

	fmt.Fprintf(m.out, "\nMigration complete: %d collections copied to %s\n", migrated, remote.Name())
	return nil
}

// Taxonomy rebuilds settings.taxonomy from the stored projects.
func (m *Migrator) Taxonomy(ctx context.Context) error {
	result, err := m.uc.RebuildTaxonomy(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "Found %d unique tags (%d new):\n", len(result.Tags), result.Created)
	for _, tag := range result.Tags {
		fmt.Fprintf(m.out, "   - %s (%d)\n", tag.Name, tag.UsageCount)
	}
	if result.BackedUp {
		fmt.Fprintf(m.out, "Legacy taxonomy lists moved to settings.%s\n", model.FieldTaxonomyBackup)
	}
	return nil
}

// TaxonomyReport prints tags that look like several tags joined by commas.
func (m *Migrator) TaxonomyReport(ctx context.Context) error {
	suggestions, err := m.uc.TaxonomyReport(ctx)
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(m.out, "No combined tags found")
		return nil
	}

	fmt.Fprintf(m.out, "Found %d combined tags:\n", len(suggestions))
	for _, s := range suggestions {
		fmt.Fprintf(m.out, "\n%q (used %d times)\n   split into: %s\n", s.Tag.Name, s.Tag.UsageCount, strings.Join(s.Parts, ", "))
		if len(s.Existing) > 0 {
			fmt.Fprintf(m.out, "   already exist: %s\n", strings.Join(s.Existing, ", "))
		}
	}
	return nil
}

func describe(value json.RawMessage) string {
	var decoded interface{}
	if err := json.Unmarshal(value, &decoded); err != nil {
		return "unreadable"
	}
	switch v := decoded.(type) {
	case []interface{}:
		return fmt.Sprintf("%d items", len(v))
	case map[string]interface{}:
		return fmt.Sprintf("%d keys", len(v))
	default:
		return "scalar value"
	}
}
