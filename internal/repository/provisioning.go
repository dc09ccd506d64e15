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

// ProvisioningRepo implements ProvisioningRepository
type ProvisioningRepo struct {
	db *database.DB
}

// NewProvisioningRepo creates a new provisioning repository
func NewProvisioningRepo(db *database.DB) ProvisioningRepository {
	return &ProvisioningRepo{db: db}
}

// GetProvisioningRecord retrieves the current record with its artifact
// references in publish order
func (r *ProvisioningRepo) GetProvisioningRecord(projectID string) (*model.ProvisioningRecord, error) {
	record := &model.ProvisioningRecord{}
	err := withTx(r.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			SELECT project_id, status, generated_at, error, updated_at
			FROM provisioning_records
			WHERE project_id = ?
		`)
		if err := tx.Get(record, query, projectID); err != nil {
			return err
		}

		record.Artifacts = []*model.ArtifactRef{}
		return tx.Select(&record.Artifacts, tx.Rebind(`
			SELECT project_id, participant_type, participant_id, name, artifact_id, size, position
			FROM artifact_refs
			WHERE project_id = ?
			ORDER BY position
		`), projectID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// SaveProvisioningRecord upserts the record and replaces its artifact
// references, failing if the project has been deleted
func (r *ProvisioningRepo) SaveProvisioningRecord(record *model.ProvisioningRecord) error {
	record.UpdatedAt = time.Now().UTC()

	return withTx(r.db, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.Get(&exists, tx.Rebind(`SELECT COUNT(*) FROM projects WHERE id = ?`), record.ProjectID); err != nil {
			return err
		}
		if exists == 0 {
			return constants.ErrProjectNotFound
		}

		upsert := tx.Rebind(`
			INSERT INTO provisioning_records (project_id, status, generated_at, error, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (project_id) DO UPDATE SET
				status = excluded.status,
				generated_at = excluded.generated_at,
				error = excluded.error,
				updated_at = excluded.updated_at
		`)
		if _, err := tx.Exec(upsert, record.ProjectID, record.Status, record.GeneratedAt, record.Error,
			record.UpdatedAt); err != nil {
			return err
		}

		if _, err := tx.Exec(tx.Rebind(`DELETE FROM artifact_refs WHERE project_id = ?`), record.ProjectID); err != nil {
			return err
		}

		insert := tx.Rebind(`
			INSERT INTO artifact_refs (project_id, participant_type, participant_id, name, artifact_id, size, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		for i, ref := range record.Artifacts {
			ref.ProjectID = record.ProjectID
			ref.Position = i
			if _, err := tx.Exec(insert, ref.ProjectID, ref.ParticipantType, ref.ParticipantID, ref.Name,
				ref.ArtifactID, ref.Size, ref.Position); err != nil {
				return err
			}
		}
		return nil
	})
}
