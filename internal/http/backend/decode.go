package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util"
	"github.com/pkg/errors"
)

const statusSuccess = "success"

// The PHP backend is loose with scalar types: ids and counters arrive as
// numbers or numeric strings, coordinates may be empty strings. These types
// accept every shape it emits and nothing else.

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", b)
		}
		*f = flexString(n.String())
	}
	return nil
}

// flexInt accepts a JSON integer, a numeric string, an empty string or null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	str := strings.TrimSpace(string(s))
	if str == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(str)
	if err != nil {
		return fmt.Errorf("expected integer, got %q", str)
	}
	*f = flexInt(n)
	return nil
}

// optFloat accepts a JSON number or numeric string; empty values and values
// that do not parse leave it invalid.
type optFloat struct {
	Value float64
	Valid bool
}

func (f *optFloat) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		*f = optFloat{}
		return nil
	}
	*f = optFloat{Value: v, Valid: true}
	return nil
}

func (f optFloat) ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// imageList accepts the JSON-encoded array-as-string the backend stores,
// a plain array, an empty string or null.
type imageList []string

func (l *imageList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var encoded string
		if err := json.Unmarshal(b, &encoded); err != nil {
			return err
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" || encoded == "null" {
			*l = nil
			return nil
		}
		b = []byte(encoded)
	}
	var paths []string
	if err := json.Unmarshal(b, &paths); err != nil {
		return errors.Wrap(err, "decode images")
	}
	*l = paths
	return nil
}

type reportRecord struct {
	ID           flexString `json:"id"`
	Location     flexString `json:"location"`
	IssueType    flexString `json:"issue_type"`
	Description  flexString `json:"description"`
	Agency       flexString `json:"agency"`
	OfficialName flexString `json:"official_name"`
	Status       flexString `json:"status"`
	Urgency      flexString `json:"urgency"`
	Latitude     optFloat   `json:"latitude"`
	Longitude    optFloat   `json:"longitude"`
	Upcall       flexInt    `json:"upcall"`
	Downcall     flexInt    `json:"downcall"`
	Images       imageList  `json:"images"`
}

func (r reportRecord) toModel() (model.Report, error) {
	id := strings.TrimSpace(string(r.ID))
	if id == "" {
		return model.Report{}, errors.New("report without id")
	}
	if r.Upcall < 0 || r.Downcall < 0 {
		return model.Report{}, fmt.Errorf("report %s has negative vote counters", id)
	}
	if len(r.Images) > model.MaxReportImages {
		return model.Report{}, fmt.Errorf("report %s has %d images", id, len(r.Images))
	}

	images := make([]string, 0, len(r.Images))
	for _, p := range r.Images {
		if p = strings.TrimSpace(p); p != "" {
			images = append(images, p)
		}
	}

	return model.Report{
		ID:            id,
		Location:      string(r.Location),
		IssueType:     string(r.IssueType),
		Description:   string(r.Description),
		Agency:        string(r.Agency),
		OfficialName:  string(r.OfficialName),
		Status:        strings.ToLower(string(r.Status)),
		Urgency:       string(r.Urgency),
		Latitude:      r.Latitude.ptr(),
		Longitude:     r.Longitude.ptr(),
		UpvoteCount:   int(r.Upcall),
		DownvoteCount: int(r.Downcall),
		Images:        images,
	}, nil
}

type reportsEnvelope struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	Reports   *[]reportRecord `json:"reports"`
	Locations *[]reportRecord `json:"locations"`
}

// decodeReports validates a get_reports/get_location/filter_reports body.
func decodeReports(body []byte, requireStatus bool) ([]model.Report, error) {
	var env reportsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "decode reports envelope")
	}
	if env.Status != statusSuccess && (requireStatus || env.Status != "") {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("status %q", env.Status)
		}
		return nil, errors.New(msg)
	}

	records := env.Reports
	if records == nil {
		records = env.Locations
	}
	if records == nil {
		return nil, errors.New("envelope has neither reports nor locations")
	}

	reports := make([]model.Report, 0, len(*records))
	for i, rec := range *records {
		report, err := rec.toModel()
		if err != nil {
			return nil, errors.Wrapf(err, "report %d", i)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

type userRecord struct {
	Name     flexString `json:"name"`
	Location flexString `json:"location"`
	Lat      optFloat   `json:"lat"`
	Lon      optFloat   `json:"lon"`
}

type userEnvelope struct {
	Error *bool       `json:"error"`
	User  *userRecord `json:"user"`
}

// decodeUser returns nil when the body describes an unauthenticated session.
func decodeUser(body []byte) (*model.UserSession, error) {
	var env userEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "decode user envelope")
	}
	if (env.Error != nil && *env.Error) || env.User == nil {
		return nil, nil
	}

	u := &model.UserSession{
		Name:      string(env.User.Name),
		Location:  string(env.User.Location),
		Latitude:  model.DefaultLatitude,
		Longitude: model.DefaultLongitude,
	}
	lat, lon := env.User.Lat, env.User.Lon
	if lat.Valid && lon.Valid {
		located := *u
		located.Latitude, located.Longitude, located.HasCoordinates = lat.Value, lon.Value, true
		if err := util.ValidateStruct(located); err == nil {
			u = &located
		}
	}
	return u, nil
}

type userRow struct {
	ID    flexString `json:"id"`
	Name  flexString `json:"name"`
	Email flexString `json:"email"`
	Role  flexString `json:"role"`
}

type usersEnvelope struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Users   *[]userRow `json:"users"`
}

func decodeUsers(body []byte) ([]model.ManagedUser, error) {
	var env usersEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "decode users envelope")
	}
	if env.Status != "" && env.Status != statusSuccess {
		return nil, errors.New(env.Message)
	}
	if env.Users == nil {
		return nil, errors.New("envelope has no users")
	}
	users := make([]model.ManagedUser, 0, len(*env.Users))
	for _, row := range *env.Users {
		users = append(users, model.ManagedUser{
			ID:    string(row.ID),
			Name:  string(row.Name),
			Email: string(row.Email),
			Role:  string(row.Role),
		})
	}
	return users, nil
}

// statusEnvelope is the {status, message?} reply of every write endpoint.
type statusEnvelope struct {
	Status      string     `json:"status"`
	Message     string     `json:"message"`
	AccountType string     `json:"account_type"`
	ReportID    flexString `json:"report_id"`
	ID          flexString `json:"id"`
}

func decodeStatus(body []byte) (statusEnvelope, error) {
	var env statusEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return env, errors.Wrap(err, "decode status envelope")
	}
	if env.Status == "" {
		return env, errors.New("envelope has no status")
	}
	return env, nil
}

func (e statusEnvelope) ok() bool {
	return e.Status == statusSuccess
}
