package services

import (
	"crypto/tls"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/projecthub/backend/internal/config"
)

// DirectoryUser is the subset of LDAP attributes we provision users from.
type DirectoryUser struct {
	DN       string
	Username string
	Email    string
	Nickname string
}

type LDAPService struct {
	cfg *config.LDAPConfig
}

func NewLDAPService(cfg *config.LDAPConfig) *LDAPService {
	return &LDAPService{cfg: cfg}
}

func (s *LDAPService) Enabled() bool {
	return s.cfg.Enabled
}

// Authenticate verifies credentials against the directory: bind with the
// service account, search for the user entry, then rebind as that entry.
func (s *LDAPService) Authenticate(username, password string) (*DirectoryUser, error) {
	if !s.cfg.Enabled {
		return nil, fmt.Errorf("ldap authentication is not enabled")
	}

	conn, err := s.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if s.cfg.BindDN != "" {
		if err := conn.Bind(s.cfg.BindDN, s.cfg.BindPassword); err != nil {
			return nil, fmt.Errorf("service account bind failed: %w", err)
		}
	}

	filter := fmt.Sprintf(s.cfg.UserFilter, ldap.EscapeFilter(username))
	search := ldap.NewSearchRequest(
		s.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{"dn", "cn", "mail", "uid", "sAMAccountName"},
		nil,
	)

	result, err := conn.Search(search)
	if err != nil {
		return nil, fmt.Errorf("ldap search failed: %w", err)
	}
	if len(result.Entries) != 1 {
		return nil, fmt.Errorf("expected exactly one directory entry for %q, got %d", username, len(result.Entries))
	}

	entry := result.Entries[0]
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	user := &DirectoryUser{
		DN:       entry.DN,
		Username: entry.GetAttributeValue("uid"),
		Email:    entry.GetAttributeValue("mail"),
		Nickname: entry.GetAttributeValue("cn"),
	}
	if user.Username == "" {
		// Active Directory
		user.Username = entry.GetAttributeValue("sAMAccountName")
	}
	return user, nil
}

func (s *LDAPService) dial() (*ldap.Conn, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if s.cfg.UseSSL {
		conn, err := ldap.DialTLS("tcp", addr, &tls.Config{InsecureSkipVerify: true})
		if err != nil {
			return nil, fmt.Errorf("ldap tls dial: %w", err)
		}
		return conn, nil
	}
	conn, err := ldap.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ldap dial: %w", err)
	}
	return conn, nil
}
