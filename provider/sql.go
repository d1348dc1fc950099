/*
 * Copyright 2024 The QuickAction Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package provider

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/quickaction/quickaction/api/types"
	"github.com/quickaction/quickaction/utils/maps"
	"github.com/quickaction/quickaction/utils/str"
)

// SQLSourceConfiguration configures a SQL-backed snapshot source.
type SQLSourceConfiguration struct {
	// DriverName is the database driver name, mysql or postgres.
	DriverName string
	// Dsn is the connection string, see sql.Open.
	Dsn string
	// FlagsSql selects the flag snapshot as (id, value) rows.
	FlagsSql string
	// ConfigSql selects a single disable_library_features row. Optional; when
	// empty the viewer configuration defaults to library features enabled.
	ConfigSql string
	// PoolSize is the connection pool size.
	PoolSize int
}

// SQLSource loads viewer configuration and flags from a relational store.
// `?` placeholders are rewritten to the `$n` style for postgres.
type SQLSource struct {
	// Config is the source configuration.
	Config SQLSourceConfiguration
	db     *sql.DB
}

// NewSQLSource decodes the configuration map and opens the database handle.
// The connection is established lazily on the first Load.
func NewSQLSource(configuration types.Configuration) (*SQLSource, error) {
	var config SQLSourceConfiguration
	if err := maps.Map2Struct(configuration, &config); err != nil {
		return nil, err
	}
	if config.DriverName == "" {
		config.DriverName = "mysql"
	}
	if config.Dsn == "" {
		return nil, errors.New("dsn can not be empty")
	}
	if config.FlagsSql == "" {
		config.FlagsSql = "select id, value from feature_flags"
	}
	config.FlagsSql = str.ConvertDollarPlaceholder(config.FlagsSql, config.DriverName)
	config.ConfigSql = str.ConvertDollarPlaceholder(config.ConfigSql, config.DriverName)

	db, err := sql.Open(config.DriverName, config.Dsn)
	if err != nil {
		return nil, err
	}
	if config.PoolSize > 0 {
		db.SetMaxOpenConns(config.PoolSize)
	}
	return &SQLSource{
		Config: config,
		db:     db,
	}, nil
}

// Load implements Source.
func (s *SQLSource) Load(ctx context.Context) (types.ViewerConfig, types.FlagSet, error) {
	var config types.ViewerConfig
	if s.Config.ConfigSql != "" {
		row := s.db.QueryRowContext(ctx, s.Config.ConfigSql)
		if err := row.Scan(&config.DisableLibraryFeatures); err != nil && err != sql.ErrNoRows {
			return config, nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, s.Config.FlagsSql)
	if err != nil {
		return config, nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	flags := make(types.FlagSet)
	for rows.Next() {
		var id string
		var value bool
		if err = rows.Scan(&id, &value); err != nil {
			return config, nil, err
		}
		flags[id] = types.FlagValue{Value: value}
	}
	if err = rows.Err(); err != nil {
		return config, nil, err
	}
	return config, flags, nil
}

// Close releases the database handle.
func (s *SQLSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
