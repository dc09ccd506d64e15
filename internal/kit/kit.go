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

package kit

import (
	"bytes"
	"fmt"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/utils"

	"gopkg.in/yaml.v3"
)

// AggregateName is the display name of the aggregate topology kit
const AggregateName = "project"

// Target identifies one kit of a provisioning run. The aggregate topology
// kit is the server target with an empty ID.
type Target struct {
	Type string
	ID   string
	Name string
}

// IsAggregate reports whether t is the aggregate topology kit
func (t Target) IsAggregate() bool {
	return t.Type == constants.ParticipantServer && t.ID == ""
}

// Targets lists every kit a run produces for the membership: the aggregate
// kit first, then servers, clients and admins in creation order
func Targets(m *model.Membership) []Target {
	targets := []Target{{Type: constants.ParticipantServer, Name: AggregateName}}
	for _, s := range m.Servers {
		targets = append(targets, Target{Type: constants.ParticipantServer, ID: s.ID, Name: s.Name})
	}
	for _, c := range m.Clients {
		targets = append(targets, Target{Type: constants.ParticipantClient, ID: c.ID, Name: c.Name})
	}
	for _, a := range m.Admins {
		targets = append(targets, Target{Type: constants.ParticipantAdmin, ID: a.ID, Name: a.Email})
	}
	return targets
}

// Build renders the kit archive for one target. The output depends only on
// the project attributes and the participant's own attributes, so unchanged
// membership yields byte-identical archives.
func Build(project *model.Project, m *model.Membership, t Target) ([]byte, error) {
	if len(m.Servers) == 0 {
		return nil, constants.NewValidationError("servers", "project must have at least one server")
	}

	var files []File
	var err error
	switch {
	case t.IsAggregate():
		files, err = aggregateFiles(project, m)
	case t.Type == constants.ParticipantServer:
		files, err = lookupAndBuild(m.Servers, t, func(s *model.Server) string { return s.ID },
			func(s *model.Server) ([]File, error) { return serverFiles(project, s) })
	case t.Type == constants.ParticipantClient:
		files, err = lookupAndBuild(m.Clients, t, func(c *model.Client) string { return c.ID },
			func(c *model.Client) ([]File, error) { return clientFiles(project, c) })
	case t.Type == constants.ParticipantAdmin:
		files, err = lookupAndBuild(m.Admins, t, func(a *model.ProjectAdmin) string { return a.ID },
			func(a *model.ProjectAdmin) ([]File, error) { return adminFiles(project, a) })
	default:
		return nil, constants.NewValidationError("type", "unknown participant type %q", t.Type)
	}
	if err != nil {
		return nil, err
	}
	return CreateZip(files)
}

func lookupAndBuild[T any](items []*T, t Target, id func(*T) string, build func(*T) ([]File, error)) ([]File, error) {
	for _, item := range items {
		if id(item) == t.ID {
			return build(item)
		}
	}
	return nil, fmt.Errorf("%s %s is not part of the membership snapshot", t.Type, t.ID)
}

func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to render yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to render yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// ProjectFile renders the NVFlare project.yml describing the full topology
func ProjectFile(project *model.Project, m *model.Membership) ([]byte, error) {
	if len(m.Servers) == 0 {
		return nil, constants.NewValidationError("servers", "project must have at least one server")
	}
	primary := m.Servers[0]

	participants := []participant{{
		Name:         project.ServerName,
		Type:         constants.ParticipantServer,
		Org:          primary.Org,
		FedLearnPort: primary.FedLearnPort,
		AdminPort:    primary.AdminPort,
	}}
	if project.HAMode {
		for _, s := range m.Servers[1:] {
			participants = append(participants, participant{
				Name:         s.Name,
				Type:         constants.ParticipantServer,
				Org:          s.Org,
				FedLearnPort: s.FedLearnPort,
				AdminPort:    s.AdminPort,
			})
		}
	}
	for _, c := range m.Clients {
		participants = append(participants, participant{Name: c.Name, Type: constants.ParticipantClient, Org: c.Org})
	}
	for _, a := range m.Admins {
		participants = append(participants, participant{Name: a.Email, Type: constants.ParticipantAdmin, Org: a.Org, Role: a.Role})
	}

	doc := projectFile{
		APIVersion:   project.APIVersion,
		Name:         project.Name,
		Description:  project.Description,
		Participants: participants,
		Builders: []builder{
			{
				Path: "nvflare.lighter.impl.workspace.WorkspaceBuilder",
				Args: map[string]interface{}{"template_file": []string{"master_template.yml"}},
			},
			{
				Path: "nvflare.lighter.impl.static_file.StaticFileBuilder",
				Args: map[string]interface{}{
					"config_folder": "config",
					"scheme":        project.Scheme,
					"overseer_agent": map[string]interface{}{
						"path":            "nvflare.ha.dummy_overseer_agent.DummyOverseerAgent",
						"overseer_exists": false,
						"args": map[string]interface{}{
							"sp_end_point": fmt.Sprintf("%s:%d:%d", project.ServerName, primary.FedLearnPort, primary.AdminPort),
						},
					},
				},
			},
			{Path: "nvflare.lighter.impl.cert.CertBuilder", Args: map[string]interface{}{}},
			{Path: "nvflare.lighter.impl.signature.SignatureBuilder", Args: map[string]interface{}{}},
		},
	}
	return marshal(doc)
}

func aggregateFiles(project *model.Project, m *model.Membership) ([]File, error) {
	projectYML, err := ProjectFile(project, m)
	if err != nil {
		return nil, err
	}
	return []File{
		{Name: "project.yml", Data: projectYML},
		{Name: "readme.txt", Data: readme(project, "topology", AggregateName)},
	}, nil
}

func serverFiles(project *model.Project, s *model.Server) ([]File, error) {
	cfg, err := marshal(serverConfig{
		FormatVersion: 2,
		Project:       project.Name,
		APIVersion:    project.APIVersion,
		Servers: []serverSpec{{
			Name: s.Name,
			Org:  s.Org,
			Service: serviceSpec{
				Target: fmt.Sprintf("%s:%d", project.ServerName, s.FedLearnPort),
				Scheme: project.Scheme,
			},
			AdminHost:          project.ServerName,
			AdminPort:          s.AdminPort,
			ConnectionSecurity: s.ConnectionSecurity,
			SSLCert:            "server.crt",
			SSLPrivateKey:      "server.key",
			SSLRootCert:        "rootCA.pem",
		}},
	})
	if err != nil {
		return nil, err
	}
	return []File{
		{Name: "startup/fed_server.yml", Data: cfg},
		{Name: "startup/start.sh", Data: startScript("server", s.Name), Executable: true},
		{Name: "readme.txt", Data: readme(project, constants.ParticipantServer, s.Name)},
	}, nil
}

func clientFiles(project *model.Project, c *model.Client) ([]File, error) {
	cfg, err := marshal(clientConfig{
		FormatVersion: 2,
		Project:       project.Name,
		APIVersion:    project.APIVersion,
		Client: clientSpec{
			Name:          c.Name,
			Org:           c.Org,
			Description:   c.Description,
			SSLCert:       "client.crt",
			SSLPrivateKey: "client.key",
			SSLRootCert:   "rootCA.pem",
		},
		Servers: []sp{{Name: project.ServerName, Scheme: project.Scheme}},
	})
	if err != nil {
		return nil, err
	}
	resources, err := marshal(resourcesConfig{
		Format:    2,
		Resources: resourceLimits{NumGPUs: c.NumGPUs, GPUMemoryGB: c.GPUMemoryGB},
	})
	if err != nil {
		return nil, err
	}
	return []File{
		{Name: "startup/fed_client.yml", Data: cfg},
		{Name: "startup/start.sh", Data: startScript("client", c.Name), Executable: true},
		{Name: "local/resources.yml", Data: resources},
		{Name: "readme.txt", Data: readme(project, constants.ParticipantClient, c.Name)},
	}, nil
}

func adminFiles(project *model.Project, a *model.ProjectAdmin) ([]File, error) {
	cfg, err := marshal(adminConfig{
		FormatVersion: 2,
		Project:       project.Name,
		APIVersion:    project.APIVersion,
		Admin: adminSpec{
			Username:   a.Email,
			Org:        a.Org,
			Role:       a.Role,
			ClientCert: "client.crt",
			ClientKey:  "client.key",
			CACert:     "rootCA.pem",
			UIDSource:  "user_input",
		},
		Servers: []sp{{Name: project.ServerName, Scheme: project.Scheme}},
	})
	if err != nil {
		return nil, err
	}
	return []File{
		{Name: "startup/fed_admin.yml", Data: cfg},
		{Name: "startup/fl_admin.sh", Data: adminScript(a.Email), Executable: true},
		{Name: "readme.txt", Data: readme(project, constants.ParticipantAdmin, a.Email)},
	}, nil
}

func startScript(role, name string) []byte {
	return []byte(fmt.Sprintf(`#!/usr/bin/env bash
DIR="$( cd "$( dirname "${BASH_SOURCE[0]}" )" >/dev/null 2>&1 && pwd )"
echo "Starting FL %s %s"
python3 -u -m nvflare.private.fed.app.%s.%s_train -m "$DIR/.." -s fed_%s.json
`, role, name, role, role, role))
}

func adminScript(email string) []byte {
	return []byte(fmt.Sprintf(`#!/usr/bin/env bash
DIR="$( cd "$( dirname "${BASH_SOURCE[0]}" )" >/dev/null 2>&1 && pwd )"
echo "Connecting admin console as %s"
python3 -m nvflare.fuel.hci.tools.admin -m "$DIR/.." -s fed_admin.json
`, email))
}

func readme(project *model.Project, kind, name string) []byte {
	return []byte(fmt.Sprintf(`Startup kit for %s %q of project %q.

Scheme: %s
Service provider: %s
API version: %d

Keep the startup folder private. Run the script inside startup/ to join the federation.
`, kind, name, project.Name, project.Scheme, project.ServerName, project.APIVersion))
}

// Built is a rendered kit paired with its target
type Built struct {
	Target
	Data []byte
}

// Bundle packs the kits of one published run into a single archive laid out
// as server/<name>.zip, client/<name>.zip, admin/<email>.zip plus the
// project.yml taken from the aggregate kit
func Bundle(kits []Built) ([]byte, error) {
	var files []File
	for _, k := range kits {
		if !k.IsAggregate() {
			if err := utils.ValidateParticipantName(k.Name); err != nil {
				return nil, fmt.Errorf("invalid %s kit name %q: %w", k.Type, k.Name, err)
			}
			files = append(files, File{Name: fmt.Sprintf("%s/%s.zip", k.Type, k.Name), Data: k.Data})
			continue
		}

		entries, err := ReadZip(k.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to read aggregate kit: %w", err)
		}
		projectYML, ok := entries["project.yml"]
		if !ok {
			return nil, fmt.Errorf("aggregate kit has no project.yml")
		}
		files = append(files, File{Name: "project.yml", Data: projectYML})
	}
	return CreateZip(files)
}
