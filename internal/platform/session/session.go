// Package session exposes the current doctor and clinic as a read-only
// context. Login and clinic switching are handled by an external service;
// this process only consumes the result.
package session

import "github.com/rxpad/rxpad/internal/config"

type DoctorProfile struct {
	Name          string `json:"name"`
	Qualification string `json:"qualification"`
	Phone         string `json:"phone"`
}

type Clinic struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Context is the {doctorProfile, activeClinic} pair the preview header
// merge reads. The core never mutates it.
type Context struct {
	Doctor       DoctorProfile `json:"doctor"`
	ActiveClinic Clinic        `json:"active_clinic"`
}

func FromConfig(cfg *config.Config) Context {
	return Context{
		Doctor: DoctorProfile{
			Name:          cfg.DoctorName,
			Qualification: cfg.DoctorQualification,
			Phone:         cfg.DoctorPhone,
		},
		ActiveClinic: Clinic{
			Name:    cfg.ClinicName,
			Address: cfg.ClinicAddress,
		},
	}
}
