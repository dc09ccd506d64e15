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

package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/database"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"

	"github.com/jmoiron/sqlx"
)

// ParticipantRepo implements ParticipantRepository
type ParticipantRepo struct {
	db *database.DB
}

// NewParticipantRepo creates a new participant repository
func NewParticipantRepo(db *database.DB) ParticipantRepository {
	return &ParticipantRepo{db: db}
}

const (
	serverColumns = `id, project_id, name, org, fed_learn_port, admin_port, connection_security, created_at`
	clientColumns = `id, project_id, name, org, description, num_gpus, gpu_memory_gb, created_at`
	adminColumns  = `id, project_id, email, org, role, created_at`
)

// sqlExecer is satisfied by both *sqlx.DB and *sqlx.Tx
type sqlExecer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Rebind(query string) string
}

// CreateServer inserts a new server
func (r *ParticipantRepo) CreateServer(server *model.Server) error {
	return insertServer(r.db, server)
}

func insertServer(e sqlExecer, server *model.Server) error {
	if server.CreatedAt.IsZero() {
		server.CreatedAt = time.Now().UTC()
	}
	query := e.Rebind(`INSERT INTO servers (` + serverColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := e.Exec(query, server.ID, server.ProjectID, server.Name, server.Org, server.FedLearnPort,
		server.AdminPort, server.ConnectionSecurity, server.CreatedAt)
	if database.IsUniqueViolation(err) {
		return constants.ErrParticipantExists
	}
	return err
}

// GetServer retrieves a server of a project
func (r *ParticipantRepo) GetServer(projectID, serverID string) (*model.Server, error) {
	server := &model.Server{}
	query := r.db.Rebind(`SELECT ` + serverColumns + ` FROM servers WHERE project_id = ? AND id = ?`)
	if err := r.db.Get(server, query, projectID, serverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return server, nil
}

// UpdateServer modifies an existing server
func (r *ParticipantRepo) UpdateServer(server *model.Server) error {
	query := r.db.Rebind(`
		UPDATE servers
		SET name = ?, org = ?, fed_learn_port = ?, admin_port = ?, connection_security = ?
		WHERE project_id = ? AND id = ?
	`)
	result, err := r.db.Exec(query, server.Name, server.Org, server.FedLearnPort, server.AdminPort,
		server.ConnectionSecurity, server.ProjectID, server.ID)
	if database.IsUniqueViolation(err) {
		return constants.ErrParticipantExists
	}
	if err != nil {
		return err
	}
	return requireAffected(result, constants.ErrServerNotFound)
}

// DeleteServer removes a server
func (r *ParticipantRepo) DeleteServer(projectID, serverID string) error {
	result, err := r.db.Exec(r.db.Rebind(`DELETE FROM servers WHERE project_id = ? AND id = ?`), projectID, serverID)
	if err != nil {
		return err
	}
	return requireAffected(result, constants.ErrServerNotFound)
}

// CreateClient inserts a new client
func (r *ParticipantRepo) CreateClient(client *model.Client) error {
	return insertClient(r.db, client)
}

func insertClient(e sqlExecer, client *model.Client) error {
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}
	query := e.Rebind(`INSERT INTO clients (` + clientColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := e.Exec(query, client.ID, client.ProjectID, client.Name, client.Org, client.Description,
		client.NumGPUs, client.GPUMemoryGB, client.CreatedAt)
	if database.IsUniqueViolation(err) {
		return constants.ErrParticipantExists
	}
	return err
}

// GetClient retrieves a client of a project
func (r *ParticipantRepo) GetClient(projectID, clientID string) (*model.Client, error) {
	client := &model.Client{}
	query := r.db.Rebind(`SELECT ` + clientColumns + ` FROM clients WHERE project_id = ? AND id = ?`)
	if err := r.db.Get(client, query, projectID, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return client, nil
}

// UpdateClient modifies an existing client
func (r *ParticipantRepo) UpdateClient(client *model.Client) error {
	query := r.db.Rebind(`
		UPDATE clients
		SET name = ?, org = ?, description = ?, num_gpus = ?, gpu_memory_gb = ?
		WHERE project_id = ? AND id = ?
	`)
	result, err := r.db.Exec(query, client.Name, client.Org, client.Description, client.NumGPUs,
		client.GPUMemoryGB, client.ProjectID, client.ID)
	if database.IsUniqueViolation(err) {
		return constants.ErrParticipantExists
	}
	if err != nil {
		return err
	}
	return requireAffected(result, constants.ErrClientNotFound)
}

// DeleteClient removes a client
func (r *ParticipantRepo) DeleteClient(projectID, clientID string) error {
	result, err := r.db.Exec(r.db.Rebind(`DELETE FROM clients WHERE project_id = ? AND id = ?`), projectID, clientID)
	if err != nil {
		return err
	}
	return requireAffected(result, constants.ErrClientNotFound)
}

// CreateAdmin inserts a new project admin
func (r *ParticipantRepo) CreateAdmin(admin *model.ProjectAdmin) error {
	return insertAdmin(r.db, admin)
}

func insertAdmin(e sqlExecer, admin *model.ProjectAdmin) error {
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	query := e.Rebind(`INSERT INTO project_admins (` + adminColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := e.Exec(query, admin.ID, admin.ProjectID, admin.Email, admin.Org, admin.Role, admin.CreatedAt)
	if database.IsUniqueViolation(err) {
		return constants.ErrParticipantExists
	}
	return err
}

// GetAdmin retrieves a project admin
func (r *ParticipantRepo) GetAdmin(projectID, adminID string) (*model.ProjectAdmin, error) {
	admin := &model.ProjectAdmin{}
	query := r.db.Rebind(`SELECT ` + adminColumns + ` FROM project_admins WHERE project_id = ? AND id = ?`)
	if err := r.db.Get(admin, query, projectID, adminID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return admin, nil
}

// UpdateAdmin modifies an existing project admin
func (r *ParticipantRepo) UpdateAdmin(admin *model.ProjectAdmin) error {
	query := r.db.Rebind(`
		UPDATE project_admins
		SET email = ?, org = ?, role = ?
		WHERE project_id = ? AND id = ?
	`)
	result, err := r.db.Exec(query, admin.Email, admin.Org, admin.Role, admin.ProjectID, admin.ID)
	if database.IsUniqueViolation(err) {
		return constants.ErrParticipantExists
	}
	if err != nil {
		return err
	}
	return requireAffected(result, constants.ErrAdminNotFound)
}

// DeleteAdmin removes a project admin
func (r *ParticipantRepo) DeleteAdmin(projectID, adminID string) error {
	result, err := r.db.Exec(r.db.Rebind(`DELETE FROM project_admins WHERE project_id = ? AND id = ?`), projectID, adminID)
	if err != nil {
		return err
	}
	return requireAffected(result, constants.ErrAdminNotFound)
}

// GetMembership reads all participants of a project inside one transaction
// so the three lists are mutually consistent
func (r *ParticipantRepo) GetMembership(projectID string) (*model.Membership, error) {
	membership := &model.Membership{
		Servers: []*model.Server{},
		Clients: []*model.Client{},
		Admins:  []*model.ProjectAdmin{},
	}

	err := withTx(r.db, func(tx *sqlx.Tx) error {
		if err := tx.Select(&membership.Servers, tx.Rebind(`SELECT `+serverColumns+
			` FROM servers WHERE project_id = ? ORDER BY created_at, id`), projectID); err != nil {
			return err
		}
		if err := tx.Select(&membership.Clients, tx.Rebind(`SELECT `+clientColumns+
			` FROM clients WHERE project_id = ? ORDER BY created_at, id`), projectID); err != nil {
			return err
		}
		return tx.Select(&membership.Admins, tx.Rebind(`SELECT `+adminColumns+
			` FROM project_admins WHERE project_id = ? ORDER BY created_at, id`), projectID)
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}
