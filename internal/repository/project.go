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

// ProjectRepo implements ProjectRepository
type ProjectRepo struct {
	db *database.DB
}

// NewProjectRepo creates a new project repository
func NewProjectRepo(db *database.DB) ProjectRepository {
	return &ProjectRepo{db: db}
}

const projectColumns = `id, name, description, scheme, server_name, api_version, ha_mode, frozen, public,
	created_by, created_at, updated_at`

// CreateProject inserts a new project
func (r *ProjectRepo) CreateProject(project *model.Project) error {
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.Exec(query, project.ID, project.Name, project.Description, project.Scheme,
		project.ServerName, project.APIVersion, project.HAMode, project.Frozen, project.Public,
		project.CreatedBy, project.CreatedAt, project.UpdatedAt)
	return err
}

// GetProjectByID retrieves a project by ID
func (r *ProjectRepo) GetProjectByID(id string) (*model.Project, error) {
	project := &model.Project{}
	query := r.db.Rebind(`SELECT ` + projectColumns + ` FROM projects WHERE id = ?`)
	if err := r.db.Get(project, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return project, nil
}

// ListProjectSummaries retrieves every project with creator info, child
// counts and provisioning status, newest first
func (r *ProjectRepo) ListProjectSummaries() ([]*model.ProjectSummary, error) {
	query := `
		SELECT p.id, p.name, p.description, p.scheme, p.server_name, p.api_version, p.ha_mode,
			p.frozen, p.public, p.created_by, p.created_at, p.updated_at,
			COALESCE(u.name, '') AS creator_name,
			COALESCE(u.email, '') AS creator_email,
			(SELECT COUNT(*) FROM servers s WHERE s.project_id = p.id) AS server_count,
			(SELECT COUNT(*) FROM clients c WHERE c.project_id = p.id) AS client_count,
			(SELECT COUNT(*) FROM project_admins a WHERE a.project_id = p.id) AS admin_count,
			COALESCE(pr.status, 'not_provisioned') AS provisioning_status
		FROM projects p
		LEFT JOIN users u ON u.id = p.created_by
		LEFT JOIN provisioning_records pr ON pr.project_id = p.id
		ORDER BY p.created_at DESC, p.id
	`
	summaries := []*model.ProjectSummary{}
	if err := r.db.Select(&summaries, query); err != nil {
		return nil, err
	}
	return summaries, nil
}

// UpdateProject modifies an existing project
func (r *ProjectRepo) UpdateProject(project *model.Project) error {
	project.UpdatedAt = time.Now().UTC()
	query := r.db.Rebind(`
		UPDATE projects
		SET name = ?, description = ?, scheme = ?, server_name = ?, api_version = ?,
			ha_mode = ?, frozen = ?, public = ?, updated_at = ?
		WHERE id = ?
	`)
	result, err := r.db.Exec(query, project.Name, project.Description, project.Scheme, project.ServerName,
		project.APIVersion, project.HAMode, project.Frozen, project.Public, project.UpdatedAt, project.ID)
	if err != nil {
		return err
	}
	return requireAffected(result, constants.ErrProjectNotFound)
}

// projectChildTables lists every table owned by a project, children first
var projectChildTables = []string{
	"artifact_refs",
	"provisioning_records",
	"applications",
	"project_admins",
	"clients",
	"servers",
}

// DeleteProject removes a project and cascades to everything it owns
func (r *ProjectRepo) DeleteProject(id string) error {
	return withTx(r.db, func(tx *sqlx.Tx) error {
		var exists int
		err := tx.Get(&exists, tx.Rebind(`SELECT COUNT(*) FROM projects WHERE id = ?`), id)
		if err != nil {
			return err
		}
		if exists == 0 {
			return constants.ErrProjectNotFound
		}

		for _, table := range projectChildTables {
			if _, err := tx.Exec(tx.Rebind(`DELETE FROM `+table+` WHERE project_id = ?`), id); err != nil {
				return err
			}
		}
		_, err = tx.Exec(tx.Rebind(`DELETE FROM projects WHERE id = ?`), id)
		return err
	})
}

// withTx runs fn in a transaction, committing on success
func withTx(db *database.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
