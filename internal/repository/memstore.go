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
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"

	"github.com/hashicorp/go-memdb"
)

// Table and index names of the in-memory store
const (
	tableUsers        = "users"
	tableProjects     = "projects"
	tableServers      = "servers"
	tableClients      = "clients"
	tableAdmins       = "admins"
	tableApplications = "applications"
	tableProvisioning = "provisioning"

	indexID          = "id"
	indexEmail       = "email"
	indexProject     = "project"
	indexProjectName = "project_name"
	indexProjectUser = "project_user"
)

// memSchema indexes every child table by project_id so cascade delete and
// membership reads are index traversals
func memSchema() *memdb.DBSchema {
	idIndex := &memdb.IndexSchema{Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}}
	projectIndex := &memdb.IndexSchema{Name: indexProject, Indexer: &memdb.StringFieldIndex{Field: "ProjectID"}}
	compound := func(name, field string) *memdb.IndexSchema {
		return &memdb.IndexSchema{
			Name: name,
			Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
				&memdb.StringFieldIndex{Field: "ProjectID"},
				&memdb.StringFieldIndex{Field: field},
			}},
		}
	}

	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:    idIndex,
					indexEmail: {Name: indexEmail, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true}},
				},
			},
			tableProjects: {
				Name:    tableProjects,
				Indexes: map[string]*memdb.IndexSchema{indexID: idIndex},
			},
			tableServers: {
				Name: tableServers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:          idIndex,
					indexProject:     projectIndex,
					indexProjectName: compound(indexProjectName, "Name"),
				},
			},
			tableClients: {
				Name: tableClients,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:          idIndex,
					indexProject:     projectIndex,
					indexProjectName: compound(indexProjectName, "Name"),
				},
			},
			tableAdmins: {
				Name: tableAdmins,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:          idIndex,
					indexProject:     projectIndex,
					indexProjectName: compound(indexProjectName, "Email"),
				},
			},
			tableApplications: {
				Name: tableApplications,
				Indexes: map[string]*memdb.IndexSchema{
					indexID:          idIndex,
					indexProject:     projectIndex,
					indexProjectUser: compound(indexProjectUser, "UserID"),
				},
			},
			tableProvisioning: {
				Name: tableProvisioning,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {Name: indexID, Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ProjectID"}},
				},
			},
		},
	}
}

// projectOwnedTables lists every table whose rows belong to a project
var projectOwnedTables = []string{tableServers, tableClients, tableAdmins, tableApplications}

// MemStore implements every repository interface on top of go-memdb.
// Stored objects are never mutated in place; reads and writes copy.
type MemStore struct {
	db *memdb.MemDB
}

// NewMemStore creates an empty in-memory store
func NewMemStore() (*MemStore, error) {
	db, err := memdb.NewMemDB(memSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	return &MemStore{db: db}, nil
}

// NewMemoryRepositories wires every repository to a fresh in-memory store
func NewMemoryRepositories() (*Repositories, error) {
	store, err := NewMemStore()
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Users:        store,
		Projects:     store,
		Participants: store,
		Applications: store,
		Provisioning: store,
		Health:       store,
	}, nil
}

// PingContext always succeeds for the in-memory store
func (s *MemStore) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// write runs fn in a write transaction, committing only on success
func (s *MemStore) write(fn func(txn *memdb.Txn) error) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func first[T any](txn *memdb.Txn, table, index string, args ...interface{}) (*T, error) {
	raw, err := txn.First(table, index, args...)
	if err != nil || raw == nil {
		return nil, err
	}
	return raw.(*T), nil
}

func all[T any](txn *memdb.Txn, table, index string, args ...interface{}) ([]*T, error) {
	it, err := txn.Get(table, index, args...)
	if err != nil {
		return nil, err
	}
	var out []*T
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*T))
	}
	return out, nil
}

func copyOf[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyApplication(a *model.Application) *model.Application {
	c := copyOf(a)
	if c == nil {
		return nil
	}
	if a.DecidedAt != nil {
		c.DecidedAt = copyOf(a.DecidedAt)
	}
	if a.DecidedBy != nil {
		c.DecidedBy = copyOf(a.DecidedBy)
	}
	return c
}

func copyRecord(r *model.ProvisioningRecord) *model.ProvisioningRecord {
	c := copyOf(r)
	if c == nil {
		return nil
	}
	if r.GeneratedAt != nil {
		c.GeneratedAt = copyOf(r.GeneratedAt)
	}
	c.Artifacts = make([]*model.ArtifactRef, 0, len(r.Artifacts))
	for _, ref := range r.Artifacts {
		c.Artifacts = append(c.Artifacts, copyOf(ref))
	}
	return c
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

// Users

// CreateUser inserts a new user
func (s *MemStore) CreateUser(user *model.User) error {
	stamp(&user.CreatedAt)
	return s.write(func(txn *memdb.Txn) error {
		existing, err := first[model.User](txn, tableUsers, indexEmail, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return constants.ErrUserExists
		}
		return txn.Insert(tableUsers, copyOf(user))
	})
}

// GetUserByID retrieves a user by ID
func (s *MemStore) GetUserByID(id string) (*model.User, error) {
	user, err := first[model.User](s.db.Txn(false), tableUsers, indexID, id)
	return copyOf(user), err
}

// GetUserByEmail retrieves a user by email
func (s *MemStore) GetUserByEmail(email string) (*model.User, error) {
	user, err := first[model.User](s.db.Txn(false), tableUsers, indexEmail, email)
	return copyOf(user), err
}

// ListUsers retrieves all users ordered by registration time
func (s *MemStore) ListUsers() ([]*model.User, error) {
	users, err := all[model.User](s.db.Txn(false), tableUsers, indexID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.User, 0, len(users))
	for _, u := range users {
		out = append(out, copyOf(u))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return byCreation(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

// UpdateUser modifies the mutable fields of a user
func (s *MemStore) UpdateUser(user *model.User) error {
	return s.write(func(txn *memdb.Txn) error {
		existing, err := first[model.User](txn, tableUsers, indexID, user.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return constants.ErrUserNotFound
		}
		updated := copyOf(existing)
		updated.Name = user.Name
		updated.Organization = user.Organization
		updated.Role = user.Role
		updated.IsActive = user.IsActive
		return txn.Insert(tableUsers, updated)
	})
}

// CountUsers returns the number of registered users
func (s *MemStore) CountUsers() (int, error) {
	users, err := all[model.User](s.db.Txn(false), tableUsers, indexID)
	return len(users), err
}

// Projects

// CreateProject inserts a new project
func (s *MemStore) CreateProject(project *model.Project) error {
	stamp(&project.CreatedAt)
	project.UpdatedAt = project.CreatedAt
	return s.write(func(txn *memdb.Txn) error {
		return txn.Insert(tableProjects, copyOf(project))
	})
}

// GetProjectByID retrieves a project by ID
func (s *MemStore) GetProjectByID(id string) (*model.Project, error) {
	project, err := first[model.Project](s.db.Txn(false), tableProjects, indexID, id)
	return copyOf(project), err
}

// ListProjectSummaries retrieves every project with creator info, child
// counts and provisioning status, newest first
func (s *MemStore) ListProjectSummaries() ([]*model.ProjectSummary, error) {
	txn := s.db.Txn(false)
	projects, err := all[model.Project](txn, tableProjects, indexID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summary := &model.ProjectSummary{Project: *p, ProvisioningStatus: constants.ProvisioningNotProvisioned}

		if creator, err := first[model.User](txn, tableUsers, indexID, p.CreatedBy); err != nil {
			return nil, err
		} else if creator != nil {
			summary.CreatorName = creator.Name
			summary.CreatorEmail = creator.Email
		}

		servers, err := all[model.Server](txn, tableServers, indexProject, p.ID)
		if err != nil {
			return nil, err
		}
		clients, err := all[model.Client](txn, tableClients, indexProject, p.ID)
		if err != nil {
			return nil, err
		}
		admins, err := all[model.ProjectAdmin](txn, tableAdmins, indexProject, p.ID)
		if err != nil {
			return nil, err
		}
		summary.ServerCount, summary.ClientCount, summary.AdminCount = len(servers), len(clients), len(admins)

		record, err := first[model.ProvisioningRecord](txn, tableProvisioning, indexID, p.ID)
		if err != nil {
			return nil, err
		}
		if record != nil {
			summary.ProvisioningStatus = record.Status
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return byCreation(summaries[j].CreatedAt, summaries[j].ID, summaries[i].CreatedAt, summaries[i].ID)
	})
	return summaries, nil
}

// UpdateProject modifies an existing project
func (s *MemStore) UpdateProject(project *model.Project) error {
	project.UpdatedAt = time.Now().UTC()
	return s.write(func(txn *memdb.Txn) error {
		existing, err := first[model.Project](txn, tableProjects, indexID, project.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return constants.ErrProjectNotFound
		}
		updated := copyOf(project)
		updated.CreatedBy = existing.CreatedBy
		updated.CreatedAt = existing.CreatedAt
		return txn.Insert(tableProjects, updated)
	})
}

// DeleteProject removes a project and every record indexed under it
func (s *MemStore) DeleteProject(id string) error {
	return s.write(func(txn *memdb.Txn) error {
		existing, err := txn.First(tableProjects, indexID, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return constants.ErrProjectNotFound
		}

		for _, table := range projectOwnedTables {
			if _, err := txn.DeleteAll(table, indexProject, id); err != nil {
				return err
			}
		}
		if _, err := txn.DeleteAll(tableProvisioning, indexID, id); err != nil {
			return err
		}
		return txn.Delete(tableProjects, existing)
	})
}

// Participants

func insertUnique[T any](txn *memdb.Txn, table string, obj *T, projectID, key string) error {
	clash, err := txn.First(table, indexProjectName, projectID, key)
	if err != nil {
		return err
	}
	if clash != nil {
		return constants.ErrParticipantExists
	}
	return txn.Insert(table, obj)
}

func updateUnique[T any](txn *memdb.Txn, table string, obj *T, id, projectID, key string, notFound error) error {
	existing, err := first[T](txn, table, indexID, id)
	if err != nil {
		return err
	}
	if existing == nil || ownerOf(existing) != projectID {
		return notFound
	}
	clash, err := txn.First(table, indexProjectName, projectID, key)
	if err != nil {
		return err
	}
	if clash != nil && idOf(clash) != id {
		return constants.ErrParticipantExists
	}
	return txn.Insert(table, obj)
}

func (s *MemStore) deleteChild(table, projectID, id string, notFound error) error {
	return s.write(func(txn *memdb.Txn) error {
		existing, err := txn.First(table, indexID, id)
		if err != nil {
			return err
		}
		if existing == nil || ownerOf(existing) != projectID {
			return notFound
		}
		return txn.Delete(table, existing)
	})
}

func ownerOf(obj interface{}) string {
	switch v := obj.(type) {
	case *model.Server:
		return v.ProjectID
	case *model.Client:
		return v.ProjectID
	case *model.ProjectAdmin:
		return v.ProjectID
	}
	return ""
}

func idOf(obj interface{}) string {
	switch v := obj.(type) {
	case *model.Server:
		return v.ID
	case *model.Client:
		return v.ID
	case *model.ProjectAdmin:
		return v.ID
	}
	return ""
}

// CreateServer inserts a new server
func (s *MemStore) CreateServer(server *model.Server) error {
	stamp(&server.CreatedAt)
	return s.write(func(txn *memdb.Txn) error {
		return insertUnique(txn, tableServers, copyOf(server), server.ProjectID, server.Name)
	})
}

// GetServer retrieves a server of a project
func (s *MemStore) GetServer(projectID, serverID string) (*model.Server, error) {
	server, err := first[model.Server](s.db.Txn(false), tableServers, indexID, serverID)
	if err != nil || server == nil || server.ProjectID != projectID {
		return nil, err
	}
	return copyOf(server), nil
}

// UpdateServer modifies an existing server
func (s *MemStore) UpdateServer(server *model.Server) error {
	return s.write(func(txn *memdb.Txn) error {
		return updateUnique(txn, tableServers, copyOf(server), server.ID, server.ProjectID, server.Name,
			constants.ErrServerNotFound)
	})
}

// DeleteServer removes a server
func (s *MemStore) DeleteServer(projectID, serverID string) error {
	return s.deleteChild(tableServers, projectID, serverID, constants.ErrServerNotFound)
}

// CreateClient inserts a new client
func (s *MemStore) CreateClient(client *model.Client) error {
	stamp(&client.CreatedAt)
	return s.write(func(txn *memdb.Txn) error {
		return insertUnique(txn, tableClients, copyOf(client), client.ProjectID, client.Name)
	})
}

// GetClient retrieves a client of a project
func (s *MemStore) GetClient(projectID, clientID string) (*model.Client, error) {
	client, err := first[model.Client](s.db.Txn(false), tableClients, indexID, clientID)
	if err != nil || client == nil || client.ProjectID != projectID {
		return nil, err
	}
	return copyOf(client), nil
}

// UpdateClient modifies an existing client
func (s *MemStore) UpdateClient(client *model.Client) error {
	return s.write(func(txn *memdb.Txn) error {
		return updateUnique(txn, tableClients, copyOf(client), client.ID, client.ProjectID, client.Name,
			constants.ErrClientNotFound)
	})
}

// DeleteClient removes a client
func (s *MemStore) DeleteClient(projectID, clientID string) error {
	return s.deleteChild(tableClients, projectID, clientID, constants.ErrClientNotFound)
}

// CreateAdmin inserts a new project admin
func (s *MemStore) CreateAdmin(admin *model.ProjectAdmin) error {
	stamp(&admin.CreatedAt)
	return s.write(func(txn *memdb.Txn) error {
		return insertUnique(txn, tableAdmins, copyOf(admin), admin.ProjectID, admin.Email)
	})
}

// GetAdmin retrieves a project admin
func (s *MemStore) GetAdmin(projectID, adminID string) (*model.ProjectAdmin, error) {
	admin, err := first[model.ProjectAdmin](s.db.Txn(false), tableAdmins, indexID, adminID)
	if err != nil || admin == nil || admin.ProjectID != projectID {
		return nil, err
	}
	return copyOf(admin), nil
}

// UpdateAdmin modifies an existing project admin
func (s *MemStore) UpdateAdmin(admin *model.ProjectAdmin) error {
	return s.write(func(txn *memdb.Txn) error {
		return updateUnique(txn, tableAdmins, copyOf(admin), admin.ID, admin.ProjectID, admin.Email,
			constants.ErrAdminNotFound)
	})
}

// DeleteAdmin removes a project admin
func (s *MemStore) DeleteAdmin(projectID, adminID string) error {
	return s.deleteChild(tableAdmins, projectID, adminID, constants.ErrAdminNotFound)
}

// GetMembership reads all participants of a project from one snapshot
func (s *MemStore) GetMembership(projectID string) (*model.Membership, error) {
	txn := s.db.Txn(false)

	servers, err := all[model.Server](txn, tableServers, indexProject, projectID)
	if err != nil {
		return nil, err
	}
	clients, err := all[model.Client](txn, tableClients, indexProject, projectID)
	if err != nil {
		return nil, err
	}
	admins, err := all[model.ProjectAdmin](txn, tableAdmins, indexProject, projectID)
	if err != nil {
		return nil, err
	}

	membership := &model.Membership{
		Servers: make([]*model.Server, 0, len(servers)),
		Clients: make([]*model.Client, 0, len(clients)),
		Admins:  make([]*model.ProjectAdmin, 0, len(admins)),
	}
	for _, v := range servers {
		membership.Servers = append(membership.Servers, copyOf(v))
	}
	for _, v := range clients {
		membership.Clients = append(membership.Clients, copyOf(v))
	}
	for _, v := range admins {
		membership.Admins = append(membership.Admins, copyOf(v))
	}

	sort.SliceStable(membership.Servers, func(i, j int) bool {
		a, b := membership.Servers[i], membership.Servers[j]
		return byCreation(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	sort.SliceStable(membership.Clients, func(i, j int) bool {
		a, b := membership.Clients[i], membership.Clients[j]
		return byCreation(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	sort.SliceStable(membership.Admins, func(i, j int) bool {
		a, b := membership.Admins[i], membership.Admins[j]
		return byCreation(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return membership, nil
}

// byCreation orders records by creation time, breaking ties by id
func byCreation(at time.Time, aID string, bt time.Time, bID string) bool {
	if !at.Equal(bt) {
		return at.Before(bt)
	}
	return aID < bID
}

// Applications

// CreateApplication inserts a new pending application
func (s *MemStore) CreateApplication(app *model.Application) error {
	stamp(&app.CreatedAt)
	return s.write(func(txn *memdb.Txn) error {
		return txn.Insert(tableApplications, copyApplication(app))
	})
}

// GetApplicationByID retrieves an application with applicant details
func (s *MemStore) GetApplicationByID(id string) (*model.Application, error) {
	txn := s.db.Txn(false)
	app, err := first[model.Application](txn, tableApplications, indexID, id)
	if err != nil || app == nil {
		return nil, err
	}
	out := copyApplication(app)
	if err := fillApplicant(txn, out); err != nil {
		return nil, err
	}
	return out, nil
}

func fillApplicant(txn *memdb.Txn, app *model.Application) error {
	user, err := first[model.User](txn, tableUsers, indexID, app.UserID)
	if err != nil {
		return err
	}
	if user != nil {
		app.UserName = user.Name
		app.UserEmail = user.Email
	}
	return nil
}

// ListApplications retrieves a project's applications newest first,
// optionally filtered by status
func (s *MemStore) ListApplications(projectID, status string) ([]*model.Application, error) {
	txn := s.db.Txn(false)
	apps, err := all[model.Application](txn, tableApplications, indexProject, projectID)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Application, 0, len(apps))
	for _, app := range apps {
		if status != "" && app.Status != status {
			continue
		}
		c := copyApplication(app)
		if err := fillApplicant(txn, c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return byCreation(out[j].CreatedAt, out[j].ID, out[i].CreatedAt, out[i].ID)
	})
	return out, nil
}

// HasPendingApplication reports whether the user holds a pending
// application for the project
func (s *MemStore) HasPendingApplication(projectID, userID string) (bool, error) {
	apps, err := all[model.Application](s.db.Txn(false), tableApplications, indexProjectUser, projectID, userID)
	if err != nil {
		return false, err
	}
	for _, app := range apps {
		if app.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

// DecideApplication records the decision and the resulting membership in
// one write transaction; nothing is committed if either part fails
func (s *MemStore) DecideApplication(app *model.Application, grant *model.MembershipGrant) error {
	return s.write(func(txn *memdb.Txn) error {
		stored, err := first[model.Application](txn, tableApplications, indexID, app.ID)
		if err != nil {
			return err
		}
		if stored == nil {
			return constants.ErrApplicationNotFound
		}
		if !stored.IsPending() {
			return constants.ErrApplicationDecided
		}

		decided := copyApplication(stored)
		decided.Status = app.Status
		decided.DecidedAt = copyOf(app.DecidedAt)
		decided.DecidedBy = copyOf(app.DecidedBy)
		if err := txn.Insert(tableApplications, decided); err != nil {
			return err
		}

		if grant == nil {
			return nil
		}
		switch {
		case grant.Server != nil:
			stamp(&grant.Server.CreatedAt)
			return insertUnique(txn, tableServers, copyOf(grant.Server), grant.Server.ProjectID, grant.Server.Name)
		case grant.Client != nil:
			stamp(&grant.Client.CreatedAt)
			return insertUnique(txn, tableClients, copyOf(grant.Client), grant.Client.ProjectID, grant.Client.Name)
		case grant.Admin != nil:
			stamp(&grant.Admin.CreatedAt)
			return insertUnique(txn, tableAdmins, copyOf(grant.Admin), grant.Admin.ProjectID, grant.Admin.Email)
		}
		return nil
	})
}

// Provisioning

// GetProvisioningRecord retrieves the current record of a project
func (s *MemStore) GetProvisioningRecord(projectID string) (*model.ProvisioningRecord, error) {
	record, err := first[model.ProvisioningRecord](s.db.Txn(false), tableProvisioning, indexID, projectID)
	if err != nil || record == nil {
		return nil, err
	}
	return copyRecord(record), nil
}

// SaveProvisioningRecord replaces the record, failing if the project has
// been deleted
func (s *MemStore) SaveProvisioningRecord(record *model.ProvisioningRecord) error {
	record.UpdatedAt = time.Now().UTC()
	for i, ref := range record.Artifacts {
		ref.ProjectID = record.ProjectID
		ref.Position = i
	}
	return s.write(func(txn *memdb.Txn) error {
		project, err := txn.First(tableProjects, indexID, record.ProjectID)
		if err != nil {
			return err
		}
		if project == nil {
			return constants.ErrProjectNotFound
		}
		return txn.Insert(tableProvisioning, copyRecord(record))
	})
}
