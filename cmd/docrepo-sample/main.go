/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/suparena/docrepo"
	"github.com/suparena/docrepo/config"
	"github.com/suparena/docrepo/datastore/testmodels"
)

var (
	configFlag  = flag.String("config", "", "Path to config file (default: search DOCREPO_CONFIG, ./docrepo.yaml, XDG)")
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
)

const storeKey = "default"

func main() {
	flag.Parse()

	if *versionFlag || *vFlag {
		info := docrepo.GetVersionInfo()
		fmt.Printf("docrepo sample version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	cfg, path, err := loadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := cfg.NewLogger(os.Stderr)
	if path != "" {
		log.Info().Str("path", path).Msg("Loaded config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("Sample failed")
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, string, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, path, err = config.LoadFromPath(path)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}
	return cfg, path, cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := cfg.OpenStore(ctx, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	stores := docrepo.NewStores()
	if err := stores.Register(storeKey, store); err != nil {
		return err
	}
	defer stores.Close()

	reg := prometheus.NewRegistry()
	opts := append(cfg.RepositoryOptions(),
		docrepo.WithLogger(log),
		docrepo.WithMetrics(docrepo.NewMetrics(reg)),
	)

	members, err := docrepo.NewRepositoryFor[*testmodels.Member](stores, storeKey, cfg.Store.Database, cfg.Store.Collection, opts...)
	if err != nil {
		return err
	}

	// Create a member and save.
	m := members.CreateNew()
	m.Title = "Wilma"
	m.UserName = "wilma"
	m.Status = testmodels.StatusPassive
	m.Email = strfmt.Email("wilma@example.com")
	m.CreatedAt = strfmt.DateTime(time.Now().UTC())
	if err := members.Save(ctx); err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	log.Info().Str("id", m.ID).Str("self", m.SelfLink).Msg("Created member")

	// Mark every member who signed up today as available.
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	today, err := members.GetAll(ctx, docrepo.Query[*testmodels.Member]{
		Match: func(m *testmodels.Member) bool {
			return !time.Time(m.CreatedAt).Before(midnight)
		},
	})
	if err != nil {
		return fmt.Errorf("query today's members: %w", err)
	}
	for _, member := range today.Items {
		member.Status = testmodels.StatusAvailable
	}
	if err := members.Save(ctx); err != nil {
		return fmt.Errorf("update today's members: %w", err)
	}
	log.Info().Int("count", len(today.Items)).Msg("Updated members created today")

	// Update a single member by user name.
	wilma, err := members.GetSingle(ctx, docrepo.Query[*testmodels.Member]{
		Filter: fmt.Sprintf("UserName == %q && id == %q", "wilma", m.ID),
	})
	if err != nil {
		return fmt.Errorf("get member: %w", err)
	}
	wilma.Title = "Wilma Flintstone"
	if err := members.Save(ctx); err != nil {
		return fmt.Errorf("update member: %w", err)
	}

	fresh := &testmodels.Member{Title: "Betty"}
	fmt.Printf("IsNew(fresh) = %v, IsNew(wilma) = %v\n", members.IsNew(fresh), members.IsNew(wilma))

	deleted, err := members.DeleteWhere(ctx, docrepo.Query[*testmodels.Member]{
		Filter: fmt.Sprintf("id == %q", m.ID),
	})
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	log.Info().Int("deleted", deleted).Msg("Deleted sample member")

	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				fmt.Printf("%s %v\n", mf.GetName(), c.GetValue())
			}
		}
	}
	return members.Close()
}
