/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/artifact"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/authz"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/kit"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/lock"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/metrics"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/repository"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errEngineClosed = fmt.Errorf("%w: provisioning engine is shutting down", constants.ErrProvisioningFailure)

// KitDownload is a stored kit ready to be served
type KitDownload struct {
	Filename string
	Data     []byte
}

// ProvisioningEngine derives startup kits from a project's membership and
// publishes them as the project's provisioning record.
//
// A run validates and marks the project "provisioning" under the project
// lock, generates kits without holding it, then takes the lock again to
// publish either the complete set of artifact references or a failed
// status. Nothing from a failed or discarded run is ever referenced.
type ProvisioningEngine struct {
	projectRepo      repository.ProjectRepository
	participantRepo  repository.ParticipantRepository
	provisioningRepo repository.ProvisioningRepository
	store            artifact.Store
	locks            *lock.KeyedMutex
	events           *ProjectEventsService
	maxParallel      int
	logger           *zap.Logger

	mu     sync.Mutex
	runs   map[string]chan struct{}
	closed bool
	wg     sync.WaitGroup

	// ctx is cancelled when Shutdown gives up waiting, aborting store writes
	ctx    context.Context
	cancel context.CancelFunc
}

func NewProvisioningEngine(repos *repository.Repositories, store artifact.Store, locks *lock.KeyedMutex,
	events *ProjectEventsService, maxParallel int, logger *zap.Logger) *ProvisioningEngine {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ProvisioningEngine{
		projectRepo:      repos.Projects,
		participantRepo:  repos.Participants,
		provisioningRepo: repos.Provisioning,
		store:            store,
		locks:            locks,
		events:           events,
		maxParallel:      maxParallel,
		logger:           logger,
		runs:             make(map[string]chan struct{}),
		ctx:              ctx,
		cancel:           cancel,
	}
}

// Provision starts the first run for a project that is not provisioned or
// whose last run failed
func (e *ProvisioningEngine) Provision(actor *model.Identity, projectID string) (*dto.ProvisionResponse, error) {
	return e.start(actor, projectID, false)
}

// Reprovision re-derives every kit from the current membership of a
// provisioned or failed project
func (e *ProvisioningEngine) Reprovision(actor *model.Identity, projectID string) (*dto.ProvisionResponse, error) {
	return e.start(actor, projectID, true)
}

func (e *ProvisioningEngine) start(actor *model.Identity, projectID string, reprovision bool) (*dto.ProvisionResponse, error) {
	unlock := e.locks.Lock(projectID)
	defer unlock()

	project, err := loadProject(e.projectRepo, projectID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Request{Actor: actor, Project: project, Action: authz.ActionProvision}); err != nil {
		return nil, err
	}
	if e.isRunning(projectID) {
		return nil, constants.ErrProvisioningInProgress
	}

	record, err := e.provisioningRepo.GetProvisioningRecord(projectID)
	if err != nil {
		return nil, err
	}
	// A "provisioning" record without a run in this process was left behind
	// by an interrupted process and is treated like a failed run.
	switch statusOf(record) {
	case constants.ProvisioningNotProvisioned:
		if reprovision {
			return nil, constants.ErrNotProvisioned
		}
	case constants.ProvisioningProvisioned:
		if !reprovision {
			return nil, constants.ErrAlreadyProvisioned
		}
	}

	membership, err := e.participantRepo.GetMembership(projectID)
	if err != nil {
		return nil, err
	}
	if len(membership.Servers) == 0 {
		return nil, constants.NewValidationError("servers", "project must have at least one server")
	}

	done, err := e.register(projectID)
	if err != nil {
		return nil, err
	}

	pending := &model.ProvisioningRecord{ProjectID: projectID, Status: constants.ProvisioningInProgress}
	if err := e.provisioningRepo.SaveProvisioningRecord(pending); err != nil {
		e.release(projectID, done)
		return nil, err
	}

	e.logger.Info("Provisioning started",
		zap.String("project_id", projectID),
		zap.Bool("reprovision", reprovision),
		zap.Int("servers", len(membership.Servers)),
		zap.Int("clients", len(membership.Clients)),
		zap.Int("admins", len(membership.Admins)),
		zap.String("requested_by", actor.UserID))

	go e.run(project, membership, pending, done)

	return &dto.ProvisionResponse{
		Status:    constants.ProvisioningInProgress,
		ProjectID: projectID,
		Message:   "Provisioning started",
	}, nil
}

func statusOf(record *model.ProvisioningRecord) string {
	if record == nil {
		return constants.ProvisioningNotProvisioned
	}
	return record.Status
}

func (e *ProvisioningEngine) isRunning(projectID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.runs[projectID]
	return ok
}

// register records an in-flight run; release undoes it and signals waiters
func (e *ProvisioningEngine) register(projectID string) (chan struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errEngineClosed
	}
	done := make(chan struct{})
	e.runs[projectID] = done
	e.wg.Add(1)
	return done, nil
}

func (e *ProvisioningEngine) release(projectID string, done chan struct{}) {
	e.mu.Lock()
	if e.runs[projectID] == done {
		delete(e.runs, projectID)
	}
	e.mu.Unlock()
	close(done)
	e.wg.Done()
}

func (e *ProvisioningEngine) run(project *model.Project, membership *model.Membership,
	pending *model.ProvisioningRecord, done chan struct{}) {
	started := time.Now()
	metrics.ProvisioningInFlight.Inc()
	defer metrics.ProvisioningInFlight.Dec()

	e.notify(pending)

	refs, err := e.generate(e.ctx, project, membership)

	record := &model.ProvisioningRecord{ProjectID: project.ID}
	if err != nil {
		provErr := &constants.ProvisioningError{ProjectID: project.ID, Cause: err}
		record.Status = constants.ProvisioningFailed
		record.Error = failureReason(err)
		e.logger.Error("Provisioning failed", zap.String("project_id", project.ID), zap.Error(provErr))
	} else {
		generatedAt := time.Now().UTC()
		record.Status = constants.ProvisioningProvisioned
		record.GeneratedAt = &generatedAt
		record.Artifacts = refs
	}

	outcome := e.publish(record, done)
	metrics.ProvisioningRunsTotal.WithLabelValues(outcome).Inc()
	metrics.ProvisioningDurationSeconds.Observe(time.Since(started).Seconds())

	if outcome != "discarded" {
		e.notify(record)
	}
}

// kitError keeps the client-facing reason of a failed kit apart from its
// cause, which may carry storage paths and is only logged.
type kitError struct {
	reason string
	cause  error
}

func (e *kitError) Error() string { return e.reason + ": " + e.cause.Error() }

func (e *kitError) Unwrap() error { return e.cause }

// failureReason is the error text stored on a failed provisioning record
func failureReason(err error) string {
	var ke *kitError
	if errors.As(err, &ke) {
		return ke.reason
	}
	if errors.Is(err, context.Canceled) {
		return "provisioning interrupted"
	}
	return "kit generation failed"
}

// generate builds and stores one kit per target. The first failure cancels
// the remaining work.
func (e *ProvisioningEngine) generate(ctx context.Context, project *model.Project,
	membership *model.Membership) ([]*model.ArtifactRef, error) {
	targets := kit.Targets(membership)
	refs := make([]*model.ArtifactRef, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			data, err := kit.Build(project, membership, target)
			if err != nil {
				return &kitError{reason: fmt.Sprintf("failed to build %s kit %q", target.Type, target.Name), cause: err}
			}
			id, err := e.store.Put(ctx, data)
			if err != nil {
				return &kitError{reason: fmt.Sprintf("failed to store %s kit %q", target.Type, target.Name), cause: err}
			}

			refs[i] = &model.ArtifactRef{
				ProjectID:       project.ID,
				ParticipantType: target.Type,
				ParticipantID:   target.ID,
				Name:            target.Name,
				ArtifactID:      id.String(),
				Size:            int64(len(data)),
				Position:        i,
			}
			metrics.KitsGeneratedTotal.WithLabelValues(target.Type).Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

// publish stores the outcome under the project lock and ends the run. A run
// whose project was deleted meanwhile is discarded.
func (e *ProvisioningEngine) publish(record *model.ProvisioningRecord, done chan struct{}) string {
	unlock := e.locks.Lock(record.ProjectID)
	defer unlock()
	defer e.release(record.ProjectID, done)

	err := e.provisioningRepo.SaveProvisioningRecord(record)
	switch {
	case errors.Is(err, constants.ErrProjectNotFound):
		e.logger.Info("Project deleted during provisioning, discarding result",
			zap.String("project_id", record.ProjectID))
		return "discarded"
	case err != nil:
		e.logger.Error("Failed to publish provisioning result",
			zap.String("project_id", record.ProjectID),
			zap.String("status", record.Status),
			zap.Error(err))
		return "error"
	}

	e.logger.Info("Provisioning finished",
		zap.String("project_id", record.ProjectID),
		zap.String("status", record.Status),
		zap.Int("artifacts", len(record.Artifacts)))
	return record.Status
}

func (e *ProvisioningEngine) notify(record *model.ProvisioningRecord) {
	if _, err := e.events.BroadcastProvisioningStatus(record); err != nil {
		e.logger.Debug("Provisioning event not delivered",
			zap.String("project_id", record.ProjectID), zap.Error(err))
	}
}

// Wait returns a channel that is closed once the project's in-flight run
// has published. The channel is already closed when nothing is running.
func (e *ProvisioningEngine) Wait(projectID string) <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if done, ok := e.runs[projectID]; ok {
		return done
	}
	done := make(chan struct{})
	close(done)
	return done
}

// Shutdown stops accepting runs and waits for in-flight ones. When ctx
// expires first, pending store writes are cancelled so the runs end as failed.
func (e *ProvisioningEngine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		e.cancel()
		return nil
	case <-ctx.Done():
		e.cancel()
		return ctx.Err()
	}
}

// Status returns the project's provisioning state; never-provisioned
// projects report not_provisioned
func (e *ProvisioningEngine) Status(actor *model.Identity, projectID string) (*dto.ProvisioningStatusResponse, error) {
	project, err := loadProject(e.projectRepo, projectID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Request{Actor: actor, Project: project, Action: authz.ActionViewStatus}); err != nil {
		return nil, err
	}

	record, err := e.provisioningRepo.GetProvisioningRecord(projectID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &dto.ProvisioningStatusResponse{
			Status:    constants.ProvisioningNotProvisioned,
			Artifacts: []*model.ArtifactRef{},
		}, nil
	}
	artifacts := record.Artifacts
	if artifacts == nil {
		artifacts = []*model.ArtifactRef{}
	}
	return &dto.ProvisioningStatusResponse{
		Status:      record.Status,
		GeneratedAt: record.GeneratedAt,
		Artifacts:   artifacts,
		Error:       record.Error,
	}, nil
}

// publishedRecord returns the record of a provisioned project after the
// download authorization check
func (e *ProvisioningEngine) publishedRecord(actor *model.Identity, projectID string) (*model.Project, *model.ProvisioningRecord, error) {
	project, err := loadProject(e.projectRepo, projectID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.Authorize(authz.Request{Actor: actor, Project: project, Action: authz.ActionDownloadKit}); err != nil {
		return nil, nil, err
	}
	record, err := e.provisioningRepo.GetProvisioningRecord(projectID)
	if err != nil {
		return nil, nil, err
	}
	if statusOf(record) != constants.ProvisioningProvisioned {
		return nil, nil, constants.ErrNotProvisioned
	}
	return project, record, nil
}

// DownloadKit returns the stored bytes of one kit. Without itemID, "server"
// selects the aggregate topology kit and "client" or "admin" the first kit
// of that type.
func (e *ProvisioningEngine) DownloadKit(actor *model.Identity, projectID, participantType, itemID string) (*KitDownload, error) {
	if !constants.ValidParticipantTypes[participantType] {
		return nil, constants.NewValidationError("type", "participant type must be server, client or admin")
	}
	_, record, err := e.publishedRecord(actor, projectID)
	if err != nil {
		return nil, err
	}

	var ref *model.ArtifactRef
	if itemID != "" {
		ref = record.Lookup(participantType, itemID)
	} else if participantType == constants.ParticipantServer {
		ref = record.Lookup(constants.ParticipantServer, "")
	} else {
		for _, r := range record.Artifacts {
			if r.ParticipantType == participantType {
				ref = r
				break
			}
		}
	}
	if ref == nil {
		return nil, constants.ErrKitNotFound
	}

	data, err := e.store.Get(context.Background(), artifact.ID(ref.ArtifactID))
	if err != nil {
		return nil, err
	}
	metrics.KitDownloadsTotal.WithLabelValues(participantType).Inc()

	filename := participantType + "_startup_kit.zip"
	if itemID != "" {
		filename = fmt.Sprintf("%s_%s_startup_kit.zip", participantType, fileToken(ref.Name))
	}
	return &KitDownload{Filename: filename, Data: data}, nil
}

// DownloadAll bundles every kit of the published run into one archive
func (e *ProvisioningEngine) DownloadAll(actor *model.Identity, projectID string) (*KitDownload, error) {
	project, record, err := e.publishedRecord(actor, projectID)
	if err != nil {
		return nil, err
	}

	kits := make([]kit.Built, len(record.Artifacts))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(e.maxParallel)
	for i, ref := range record.Artifacts {
		i, ref := i, ref
		g.Go(func() error {
			data, err := e.store.Get(ctx, artifact.ID(ref.ArtifactID))
			if err != nil {
				return fmt.Errorf("failed to load %s kit %q: %w", ref.ParticipantType, ref.Name, err)
			}
			kits[i] = kit.Built{
				Target: kit.Target{Type: ref.ParticipantType, ID: ref.ParticipantID, Name: ref.Name},
				Data:   data,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bundle, err := kit.Bundle(kits)
	if err != nil {
		return nil, err
	}
	metrics.KitDownloadsTotal.WithLabelValues("all").Inc()
	return &KitDownload{
		Filename: fileToken(project.Name) + "_startup_kits.zip",
		Data:     bundle,
	}, nil
}

// fileToken turns a display name into a safe filename component
func fileToken(name string) string {
	token, err := utils.GenerateHandle(name, nil)
	if err != nil {
		return "kit"
	}
	return token
}
