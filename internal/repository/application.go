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

// ApplicationRepo implements ApplicationRepository
type ApplicationRepo struct {
	db *database.DB
}

// NewApplicationRepo creates a new application repository
func NewApplicationRepo(db *database.DB) ApplicationRepository {
	return &ApplicationRepo{db: db}
}

const applicationColumns = `a.id, a.project_id, a.user_id, a.organization, a.role_requested, a.message,
	a.status, a.created_at, a.decided_at, a.decided_by,
	COALESCE(u.name, '') AS user_name, COALESCE(u.email, '') AS user_email`

// CreateApplication inserts a new pending application
func (r *ApplicationRepo) CreateApplication(app *model.Application) error {
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`
		INSERT INTO applications (id, project_id, user_id, organization, role_requested, message, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.Exec(query, app.ID, app.ProjectID, app.UserID, app.Organization, app.RoleRequested,
		app.Message, app.Status, app.CreatedAt)
	return err
}

// GetApplicationByID retrieves an application with applicant details
func (r *ApplicationRepo) GetApplicationByID(id string) (*model.Application, error) {
	app := &model.Application{}
	query := r.db.Rebind(`
		SELECT ` + applicationColumns + `
		FROM applications a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.id = ?
	`)
	if err := r.db.Get(app, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return app, nil
}

// ListApplications retrieves a project's applications newest first,
// optionally filtered by status
func (r *ApplicationRepo) ListApplications(projectID, status string) ([]*model.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.project_id = ?`
	args := []interface{}{projectID}
	if status != "" {
		query += ` AND a.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY a.created_at DESC, a.id DESC`

	apps := []*model.Application{}
	if err := r.db.Select(&apps, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return apps, nil
}

// HasPendingApplication reports whether the user holds a pending
// application for the project
func (r *ApplicationRepo) HasPendingApplication(projectID, userID string) (bool, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM applications WHERE project_id = ? AND user_id = ? AND status = ?`)
	if err := r.db.Get(&count, query, projectID, userID, constants.ApplicationPending); err != nil {
		return false, err
	}
	return count > 0, nil
}

// DecideApplication records the decision and the resulting membership
// atomically. The conditional update guards against a concurrent decision.
func (r *ApplicationRepo) DecideApplication(app *model.Application, grant *model.MembershipGrant) error {
	return withTx(r.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			UPDATE applications
			SET status = ?, decided_at = ?, decided_by = ?
			WHERE id = ? AND status = ?
		`)
		result, err := tx.Exec(query, app.Status, app.DecidedAt, app.DecidedBy, app.ID, constants.ApplicationPending)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			var count int
			if err := tx.Get(&count, tx.Rebind(`SELECT COUNT(*) FROM applications WHERE id = ?`), app.ID); err != nil {
				return err
			}
			if count == 0 {
				return constants.ErrApplicationNotFound
			}
			return constants.ErrApplicationDecided
		}

		if grant == nil {
			return nil
		}
		switch {
		case grant.Server != nil:
			return insertServer(tx, grant.Server)
		case grant.Client != nil:
			return insertClient(tx, grant.Client)
		case grant.Admin != nil:
			return insertAdmin(tx, grant.Admin)
		}
		return nil
	})
}
