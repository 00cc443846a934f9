package domain

import "time"

// Environment identifies a deployment target.
type Environment string

const (
	EnvironmentDevelopment Environment = "Desarrollo"
	EnvironmentTesting     Environment = "Pruebas"
	EnvironmentProduction  Environment = "Producción"
)

// Environments lists every target in promotion order.
var Environments = []Environment{
	EnvironmentDevelopment,
	EnvironmentTesting,
	EnvironmentProduction,
}

// Valid reports whether e is a known environment.
func (e Environment) Valid() bool {
	for _, candidate := range Environments {
		if candidate == e {
			return true
		}
	}
	return false
}

// DeploymentStatus is the outcome of a deployment.
type DeploymentStatus string

const (
	DeploymentStatusSucceeded  DeploymentStatus = "Exitoso"
	DeploymentStatusFailed     DeploymentStatus = "Fallido"
	DeploymentStatusInProgress DeploymentStatus = "En Progreso"
	DeploymentStatusRolledBack DeploymentStatus = "Revertido"
)

// DeploymentStatuses lists every deployment outcome.
var DeploymentStatuses = []DeploymentStatus{
	DeploymentStatusSucceeded,
	DeploymentStatusFailed,
	DeploymentStatusInProgress,
	DeploymentStatusRolledBack,
}

// Valid reports whether s is a known deployment status.
func (s DeploymentStatus) Valid() bool {
	for _, candidate := range DeploymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// DeployedFile is one artifact pushed by a deployment.
type DeployedFile struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Type    string `json:"type" yaml:"type"`
}

// DeploymentLogEntry records files pushed to an environment.
type DeploymentLogEntry struct {
	ID          string           `json:"id" yaml:"id"`
	Timestamp   time.Time        `json:"timestamp" yaml:"timestamp"`
	UserID      string           `json:"userId" yaml:"userId"`
	Files       []DeployedFile   `json:"files" yaml:"files"`
	Environment Environment      `json:"environment" yaml:"environment"`
	Status      DeploymentStatus `json:"status" yaml:"status"`
	TicketIDs   []string         `json:"ticketIds,omitempty" yaml:"ticketIds,omitempty"`
}
