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

// Documents written into startup kits. Field order here is the order in the
// generated YAML.

type projectFile struct {
	APIVersion   int           `yaml:"api_version"`
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description"`
	Participants []participant `yaml:"participants"`
	Builders     []builder     `yaml:"builders"`
}

type participant struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	Org          string `yaml:"org"`
	FedLearnPort int    `yaml:"fed_learn_port,omitempty"`
	AdminPort    int    `yaml:"admin_port,omitempty"`
	Role         string `yaml:"role,omitempty"`
}

type builder struct {
	Path string                 `yaml:"path"`
	Args map[string]interface{} `yaml:"args"`
}

type serverConfig struct {
	FormatVersion int          `yaml:"format_version"`
	Project       string       `yaml:"project"`
	APIVersion    int          `yaml:"api_version"`
	Servers       []serverSpec `yaml:"servers"`
}

type serverSpec struct {
	Name               string      `yaml:"name"`
	Org                string      `yaml:"org"`
	Service            serviceSpec `yaml:"service"`
	AdminHost          string      `yaml:"admin_host"`
	AdminPort          int         `yaml:"admin_port"`
	ConnectionSecurity string      `yaml:"connection_security"`
	SSLCert            string      `yaml:"ssl_cert"`
	SSLPrivateKey      string      `yaml:"ssl_private_key"`
	SSLRootCert        string      `yaml:"ssl_root_cert"`
}

type serviceSpec struct {
	Target string `yaml:"target"`
	Scheme string `yaml:"scheme"`
}

type clientConfig struct {
	FormatVersion int        `yaml:"format_version"`
	Project       string     `yaml:"project"`
	APIVersion    int        `yaml:"api_version"`
	Client        clientSpec `yaml:"client"`
	Servers       []sp       `yaml:"servers"`
}

type clientSpec struct {
	Name          string `yaml:"name"`
	Org           string `yaml:"org"`
	Description   string `yaml:"description,omitempty"`
	SSLCert       string `yaml:"ssl_cert"`
	SSLPrivateKey string `yaml:"ssl_private_key"`
	SSLRootCert   string `yaml:"ssl_root_cert"`
}

// sp names the service provider a client or admin connects to. Ports are
// resolved through the overseer, not baked into participant kits.
type sp struct {
	Name   string `yaml:"name"`
	Scheme string `yaml:"scheme"`
}

type resourcesConfig struct {
	Format    int            `yaml:"format_version"`
	Resources resourceLimits `yaml:"resources"`
}

type resourceLimits struct {
	NumGPUs     int `yaml:"num_of_gpus"`
	GPUMemoryGB int `yaml:"mem_per_gpu_in_GiB"`
}

type adminConfig struct {
	FormatVersion int       `yaml:"format_version"`
	Project       string    `yaml:"project"`
	APIVersion    int       `yaml:"api_version"`
	Admin         adminSpec `yaml:"admin"`
	Servers       []sp      `yaml:"servers"`
}

type adminSpec struct {
	Username   string `yaml:"username"`
	Org        string `yaml:"org"`
	Role       string `yaml:"role"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
	CACert     string `yaml:"ca_cert"`
	UIDSource  string `yaml:"uid_source"`
}
