package authz

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/sirupsen/logrus"
)

// Objects and actions named in the access policy.
const (
	ObjectAssignments = "assignments"
	ObjectDirectory   = "directory"
	ObjectUsers       = "users"

	ActionRead  = "read"
	ActionWrite = "write"
)

type Config struct {
	ModelPath  string
	PolicyPath string
	Logger     *logrus.Logger
}

// Service answers role based access questions from a casbin policy.
type Service struct {
	enforcer *casbin.Enforcer
	logger   *logrus.Entry
	mu       sync.RWMutex
}

func NewService(cfg Config) (*Service, error) {
	if cfg.ModelPath == "" || cfg.PolicyPath == "" {
		return nil, fmt.Errorf("authz: model and policy paths are required")
	}

	var logger *logrus.Entry
	if cfg.Logger != nil {
		logger = cfg.Logger.WithField("component", "authz")
	} else {
		logger = logrus.WithField("component", "authz")
	}

	enf, err := casbin.NewEnforcer(cfg.ModelPath, fileadapter.NewAdapter(cfg.PolicyPath))
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if err := enf.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz: failed to load policies: %w", err)
	}

	return &Service{enforcer: enf, logger: logger}, nil
}

// Check reports whether role may perform action on object. Denials are logged.
func (s *Service) Check(ctx context.Context, role, object, action string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	if !allowed {
		s.logger.WithContext(ctx).WithFields(logrus.Fields{
			"role":   role,
			"object": object,
			"action": action,
		}).Warn("authz denied request")
	}
	return allowed, nil
}

// ReloadPolicy reloads policy data from disk.
func (s *Service) ReloadPolicy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("authz: reload policy failed: %w", err)
	}
	s.logger.WithContext(ctx).Info("authz policy reloaded")
	return nil
}
