package session

import (
	"encoding/json"
	"fmt"

	"github.com/IbrahimJenberu/smart-banking-system/internal/authapi"
	"github.com/IbrahimJenberu/smart-banking-system/internal/domain"
)

// profile is the persisted shape of the user key. Role stays a raw string
// until ParseRole accepts it.
type profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func encodeRecord(s domain.Session) (Record, error) {
	data, err := json.Marshal(profile{
		ID:       s.User.ID,
		Username: s.User.Username,
		Email:    s.User.Email,
		Role:     string(s.User.Role),
	})
	if err != nil {
		return Record{}, fmt.Errorf("encode profile: %w", err)
	}
	return Record{Token: s.Token, User: string(data)}, nil
}

// decodeRecord returns ok=false when either key is absent and ErrCorruptState
// when a token is present but the profile is not a well-formed user.
func decodeRecord(rec Record) (sess domain.Session, ok bool, err error) {
	if rec.Token == "" || rec.User == "" {
		return domain.Session{}, false, nil
	}

	var p *profile
	if err := json.Unmarshal([]byte(rec.User), &p); err != nil {
		return domain.Session{}, false, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if p == nil {
		return domain.Session{}, false, fmt.Errorf("%w: profile is null", ErrCorruptState)
	}

	role, err := domain.ParseRole(p.Role)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("%w: role %q: %v", ErrCorruptState, p.Role, err)
	}

	return domain.Session{
		Token: rec.Token,
		User: domain.User{
			ID:       p.ID,
			Username: p.Username,
			Email:    p.Email,
			Role:     role,
		},
	}, true, nil
}

func sessionFromResponse(resp *authapi.AuthResponse) (domain.Session, error) {
	if resp == nil || resp.Token == "" {
		return domain.Session{}, authapi.ErrMissingToken
	}
	role, err := domain.ParseRole(resp.Role)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: role %q", err, resp.Role)
	}
	return domain.Session{
		Token: resp.Token,
		User: domain.User{
			ID:       resp.UserID,
			Username: resp.Username,
			Email:    resp.Email,
			Role:     role,
		},
	}, nil
}
