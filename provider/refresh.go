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
	"errors"
	"time"

	"github.com/quickaction/quickaction/api/types"
	"github.com/robfig/cron/v3"
)

// refreshTimeout bounds one snapshot load.
const refreshTimeout = time.Second * 10

// CronRefresher periodically replaces a MemoryProvider's snapshot from a
// Source. The cron spec uses the six field format with a seconds field, e.g.
// `*/30 * * * * *` for every 30 seconds, and supports the `@every 1m` style
// shortcuts.
type CronRefresher struct {
	source  Source
	target  *MemoryProvider
	logger  types.Logger
	cron    *cron.Cron
	entryId cron.EntryID
}

// NewCronRefresher validates the cron spec and schedules the refresh job.
// The job does not run until Start.
func NewCronRefresher(engineConfig types.Config, spec string, source Source, target *MemoryProvider) (*CronRefresher, error) {
	if source == nil {
		return nil, errors.New("source can not be nil")
	}
	if target == nil {
		return nil, errors.New("target provider can not be nil")
	}
	r := &CronRefresher{
		source: source,
		target: target,
		logger: types.NewLogger(engineConfig.Logger),
		cron:   cron.New(cron.WithSeconds()),
	}
	entryId, err := r.cron.AddFunc(spec, r.refresh)
	if err != nil {
		return nil, err
	}
	r.entryId = entryId
	return r, nil
}

// Start begins the schedule and performs one immediate refresh so the target
// is populated before the first tick.
func (r *CronRefresher) Start() {
	r.refresh()
	r.cron.Start()
}

// Stop ends the schedule. A refresh already in flight completes.
func (r *CronRefresher) Stop() {
	r.cron.Remove(r.entryId)
	r.cron.Stop()
}

func (r *CronRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	config, flags, err := r.source.Load(ctx)
	if err != nil {
		// keep serving the previous snapshot
		r.logger.Printf("cron refresher: load err :%v", err)
		return
	}
	r.target.Replace(config, flags)
}
