package httptransport

import (
	"time"

	"timeclock/internal/attendance"
	"timeclock/internal/domain"
	"timeclock/internal/geo"
	"timeclock/internal/verify"
)

type userDTO struct {
	Username        string   `json:"username"`
	FullName        string   `json:"fullName"`
	Role            string   `json:"role"`
	JobTitle        string   `json:"jobTitle,omitempty"`
	PhotoURL        string   `json:"photoUrl,omitempty"`
	RequiredUniform string   `json:"requiredUniform,omitempty"`
	AssignedStores  []string `json:"assignedStoreIds,omitempty"`
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{
		Username:        u.Username,
		FullName:        u.FullName,
		Role:            string(u.Role),
		JobTitle:        u.JobTitle,
		PhotoURL:        u.PhotoURL,
		RequiredUniform: u.RequiredUniform,
		AssignedStores:  u.AssignedStores,
	}
}

type storeDTO struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func toStoreDTO(s domain.Store) storeDTO {
	return storeDTO{ID: s.ID, Name: s.Name, Address: s.Address, Lat: s.Lat, Lng: s.Lng}
}

type positionDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type locationDTO struct {
	Status   string       `json:"status"`
	Position *positionDTO `json:"position,omitempty"`
	Distance float64      `json:"distanceToStore,omitempty"`
	Reason   string       `json:"reason,omitempty"`
	Detail   string       `json:"detail,omitempty"`
}

func toLocationDTO(e geo.Evaluation) *locationDTO {
	if e.Status == "" {
		return nil
	}
	dto := &locationDTO{
		Status:   string(e.Status),
		Distance: e.Distance,
		Reason:   string(e.Reason),
		Detail:   e.Detail(),
	}
	if e.Position != nil {
		dto.Position = &positionDTO{Lat: e.Position.Lat, Lng: e.Position.Lng}
	}
	return dto
}

type verdictDTO struct {
	Verified       bool   `json:"verified"`
	IdentityScore  int    `json:"identityScore"`
	Message        string `json:"message"`
	UniformOK      bool   `json:"uniformCompliant"`
	UniformDetails string `json:"uniformDetails"`
}

func toVerdictDTO(v verify.Verdict) verdictDTO {
	return verdictDTO{
		Verified:       v.Verified,
		IdentityScore:  v.IdentityScore,
		Message:        v.Message,
		UniformOK:      v.UniformOK,
		UniformDetails: v.UniformDetails,
	}
}

type timeLogDTO struct {
	ID              string       `json:"id"`
	UserID          string       `json:"userId"`
	UserFullName    string       `json:"userFullName"`
	UserPhotoURL    string       `json:"userPhotoUrl"`
	StoreID         string       `json:"storeId"`
	StoreName       string       `json:"storeName"`
	Type            string       `json:"type"`
	Timestamp       time.Time    `json:"timestamp"`
	HasIncident     bool         `json:"hasIncident"`
	IncidentDetail  string       `json:"incidentDetail,omitempty"`
	IdentityScore   int          `json:"identityScore"`
	UniformOK       bool         `json:"uniformCompliant"`
	UniformDetails  string       `json:"uniformDetails,omitempty"`
	Location        *positionDTO `json:"location,omitempty"`
	DistanceToStore *float64     `json:"distanceToStore,omitempty"`
	LocationAllowed *bool        `json:"locationAllowed,omitempty"`
}

func toTimeLogDTO(l domain.TimeLog) timeLogDTO {
	dto := timeLogDTO{
		ID:              l.ID,
		UserID:          l.UserID,
		UserFullName:    l.UserFullName,
		UserPhotoURL:    l.UserPhotoURL,
		StoreID:         l.StoreID,
		StoreName:       l.StoreName,
		Type:            string(l.Type),
		Timestamp:       l.Timestamp,
		HasIncident:     l.HasIncident,
		IncidentDetail:  l.IncidentDetail,
		IdentityScore:   l.IdentityScore,
		UniformOK:       l.UniformOK,
		UniformDetails:  l.UniformDetails,
		DistanceToStore: l.DistanceToStore,
		LocationAllowed: l.LocationAllowed,
	}
	if l.Location != nil {
		dto.Location = &positionDTO{Lat: l.Location.Lat, Lng: l.Location.Lng}
	}
	return dto
}

type snapshotDTO struct {
	State    string       `json:"state"`
	User     *userDTO     `json:"user,omitempty"`
	Store    *storeDTO    `json:"store,omitempty"`
	Location *locationDTO `json:"location,omitempty"`
	Verdict  *verdictDTO  `json:"verdict,omitempty"`
	LastLog  *timeLogDTO  `json:"lastLog,omitempty"`
}

func toSnapshotDTO(s attendance.Snapshot) snapshotDTO {
	dto := snapshotDTO{State: string(s.State)}
	if s.User.Username != "" {
		u := toUserDTO(s.User)
		dto.User = &u
	}
	if s.Store.ID != "" {
		st := toStoreDTO(s.Store)
		dto.Store = &st
	}
	dto.Location = toLocationDTO(s.Location)
	if s.Verdict.Message != "" || s.Verdict.Verified {
		v := toVerdictDTO(s.Verdict)
		dto.Verdict = &v
	}
	if s.LastLog != nil {
		l := toTimeLogDTO(*s.LastLog)
		dto.LastLog = &l
	}
	return dto
}

type auditRecordDTO struct {
	ID              string            `json:"id"`
	StoreID         string            `json:"storeId"`
	StoreName       string            `json:"storeName"`
	AuditorID       string            `json:"userId"`
	Answers         map[string]string `json:"answers"`
	PhotoURLs       map[string]string `json:"photos"`
	Score           int               `json:"score"`
	Summary         string            `json:"summary"`
	CriticalIssues  []string          `json:"criticalIssues"`
	Recommendations []string          `json:"recommendations"`
	CreatedAt       time.Time         `json:"createdAt"`
}

func toAuditRecordDTO(r domain.AuditRecord) auditRecordDTO {
	return auditRecordDTO{
		ID:              r.ID,
		StoreID:         r.StoreID,
		StoreName:       r.StoreName,
		AuditorID:       r.AuditorID,
		Answers:         r.Answers,
		PhotoURLs:       r.PhotoURLs,
		Score:           r.Score,
		Summary:         r.Summary,
		CriticalIssues:  r.CriticalIssues,
		Recommendations: r.Recommendations,
		CreatedAt:       r.CreatedAt,
	}
}
