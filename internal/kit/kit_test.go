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
	"testing"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testProject() *model.Project {
	return &model.Project{
		ID:         "p1",
		Name:       "FL-Trial",
		Scheme:     constants.SchemeGRPC,
		ServerName: constants.DefaultServerName,
		APIVersion: constants.DefaultAPIVersion,
	}
}

func testMembership() *model.Membership {
	return &model.Membership{
		Servers: []*model.Server{
			{ID: "s1", Name: "srv1", Org: "sorachain", FedLearnPort: 8002, AdminPort: 8003, ConnectionSecurity: constants.ConnectionSecurityMTLS},
			{ID: "s2", Name: "srv2", Org: "sorachain", FedLearnPort: 9002, AdminPort: 9003, ConnectionSecurity: constants.ConnectionSecurityTLS},
		},
		Clients: []*model.Client{
			{ID: "c1", Name: "site-a", Org: "hospital-a", NumGPUs: 2, GPUMemoryGB: 24},
		},
		Admins: []*model.ProjectAdmin{
			{ID: "a1", Email: "lead@example.com", Org: "sorachain", Role: constants.ProjectRoleLead},
		},
	}
}

func buildAll(t *testing.T, project *model.Project, m *model.Membership) map[Target][]byte {
	t.Helper()
	kits := make(map[Target][]byte)
	for _, target := range Targets(m) {
		data, err := Build(project, m, target)
		require.NoError(t, err, "building %+v", target)
		kits[target] = data
	}
	return kits
}

func TestTargets(t *testing.T) {
	targets := Targets(testMembership())
	require.Len(t, targets, 5)
	assert.True(t, targets[0].IsAggregate())
	assert.Equal(t, Target{Type: constants.ParticipantServer, ID: "s1", Name: "srv1"}, targets[1])
	assert.Equal(t, Target{Type: constants.ParticipantClient, ID: "c1", Name: "site-a"}, targets[3])
	assert.Equal(t, Target{Type: constants.ParticipantAdmin, ID: "a1", Name: "lead@example.com"}, targets[4])
}

func TestBuildIsDeterministic(t *testing.T) {
	first := buildAll(t, testProject(), testMembership())
	second := buildAll(t, testProject(), testMembership())

	require.Equal(t, len(first), len(second))
	for target, data := range first {
		assert.Equal(t, data, second[target], "kit %+v differs between runs", target)
	}
}

func TestPortChangeOnlyAffectsThatServer(t *testing.T) {
	project := testProject()
	before := buildAll(t, project, testMembership())

	changed := testMembership()
	changed.Servers[1].FedLearnPort = 9102
	after := buildAll(t, project, changed)

	for target, data := range before {
		if target.ID == "s2" {
			assert.NotEqual(t, data, after[target])
			continue
		}
		assert.Equal(t, data, after[target], "kit %+v should not change", target)
	}

	// The primary server also feeds the aggregate topology
	primaryChanged := testMembership()
	primaryChanged.Servers[0].FedLearnPort = 8102
	afterPrimary := buildAll(t, project, primaryChanged)
	for target, data := range before {
		switch {
		case target.ID == "s1", target.IsAggregate():
			assert.NotEqual(t, data, afterPrimary[target], "kit %+v should change", target)
		default:
			assert.Equal(t, data, afterPrimary[target], "kit %+v should not change", target)
		}
	}
}

func TestServerKitContents(t *testing.T) {
	m := testMembership()
	data, err := Build(testProject(), m, Target{Type: constants.ParticipantServer, ID: "s1", Name: "srv1"})
	require.NoError(t, err)

	entries, err := ReadZip(data)
	require.NoError(t, err)
	assert.Contains(t, entries, "startup/fed_server.yml")
	assert.Contains(t, entries, "startup/start.sh")
	assert.Contains(t, entries, "readme.txt")

	var cfg serverConfig
	require.NoError(t, yaml.Unmarshal(entries["startup/fed_server.yml"], &cfg))
	assert.Equal(t, "FL-Trial", cfg.Project)
	require.Len(t, cfg.Servers, 1)
	assert.Equal(t, "FLServer.com:8002", cfg.Servers[0].Service.Target)
	assert.Equal(t, 8003, cfg.Servers[0].AdminPort)
	assert.Equal(t, constants.ConnectionSecurityMTLS, cfg.Servers[0].ConnectionSecurity)
}

func TestClientAndAdminKitContents(t *testing.T) {
	project, m := testProject(), testMembership()

	clientKit, err := Build(project, m, Target{Type: constants.ParticipantClient, ID: "c1", Name: "site-a"})
	require.NoError(t, err)
	entries, err := ReadZip(clientKit)
	require.NoError(t, err)
	require.Contains(t, entries, "local/resources.yml")

	var resources resourcesConfig
	require.NoError(t, yaml.Unmarshal(entries["local/resources.yml"], &resources))
	assert.Equal(t, 2, resources.Resources.NumGPUs)
	assert.Equal(t, 24, resources.Resources.GPUMemoryGB)
	assert.NotContains(t, string(entries["startup/fed_client.yml"]), "8002")

	adminKit, err := Build(project, m, Target{Type: constants.ParticipantAdmin, ID: "a1", Name: "lead@example.com"})
	require.NoError(t, err)
	entries, err = ReadZip(adminKit)
	require.NoError(t, err)
	var admin adminConfig
	require.NoError(t, yaml.Unmarshal(entries["startup/fed_admin.yml"], &admin))
	assert.Equal(t, "lead@example.com", admin.Admin.Username)
	assert.Equal(t, constants.ProjectRoleLead, admin.Admin.Role)
	assert.Contains(t, entries, "startup/fl_admin.sh")
}

func TestProjectFile(t *testing.T) {
	project, m := testProject(), testMembership()

	data, err := ProjectFile(project, m)
	require.NoError(t, err)

	var doc projectFile
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "FL-Trial", doc.Name)
	assert.Equal(t, 3, doc.APIVersion)
	// Without HA mode only the primary server is listed
	require.Len(t, doc.Participants, 3)
	assert.Equal(t, constants.DefaultServerName, doc.Participants[0].Name)
	assert.Equal(t, 8002, doc.Participants[0].FedLearnPort)
	assert.Len(t, doc.Builders, 4)
	assert.Contains(t, string(data), "sp_end_point: FLServer.com:8002:8003")

	project.HAMode = true
	data, err = ProjectFile(project, m)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Len(t, doc.Participants, 4)
}

func TestBuildRequiresServer(t *testing.T) {
	m := testMembership()
	m.Servers = nil

	_, err := Build(testProject(), m, Target{Type: constants.ParticipantServer, Name: AggregateName})
	assert.ErrorIs(t, err, constants.ErrValidation)
}

func TestBuildUnknownParticipant(t *testing.T) {
	_, err := Build(testProject(), testMembership(), Target{Type: constants.ParticipantClient, ID: "ghost"})
	assert.Error(t, err)
}

func TestBundle(t *testing.T) {
	project, m := testProject(), testMembership()
	var kits []Built
	for _, target := range Targets(m) {
		data, err := Build(project, m, target)
		require.NoError(t, err)
		kits = append(kits, Built{Target: target, Data: data})
	}

	bundle, err := Bundle(kits)
	require.NoError(t, err)

	entries, err := ReadZip(bundle)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.Contains(t, entries, "project.yml")
	assert.Contains(t, entries, "server/srv1.zip")
	assert.Contains(t, entries, "server/srv2.zip")
	assert.Contains(t, entries, "client/site-a.zip")
	assert.Contains(t, entries, "admin/lead@example.com.zip")

	again, err := Bundle(kits)
	require.NoError(t, err)
	assert.Equal(t, bundle, again)
}

func TestBundleRejectsUnsafeNames(t *testing.T) {
	for _, target := range []Target{
		{Type: constants.ParticipantServer, ID: "s1", Name: "../../../etc/cron.d/evil"},
		{Type: constants.ParticipantClient, ID: "c1", Name: "/abs/site"},
		{Type: constants.ParticipantClient, ID: "c2", Name: `..\site`},
		{Type: constants.ParticipantAdmin, ID: "a1", Name: "x/../lead@example.com"},
	} {
		t.Run(target.Type+":"+target.Name, func(t *testing.T) {
			_, err := Bundle([]Built{{Target: target, Data: []byte("kit")}})
			assert.ErrorIs(t, err, utils.ErrNameInvalid)
		})
	}
}

func TestCreateZipRejectsDuplicates(t *testing.T) {
	_, err := CreateZip([]File{{Name: "a.txt"}, {Name: "a.txt"}})
	assert.Error(t, err)
}
