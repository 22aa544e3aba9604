package testutil

import (
	"context"
	"time"

	"github.com/billcycle/billcycle/internal/config"
	"github.com/billcycle/billcycle/internal/logger"
	"github.com/billcycle/billcycle/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds the repository fakes for testing
type Stores struct {
	SubscriptionRepo  *InMemorySubscriptionStore
	PlanRepo          *InMemoryPlanStore
	BillingRecordRepo *InMemoryBillingRecordStore
}

// BaseServiceTestSuite provides common functionality for service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	gateway   *MockGateway
	auditSink *InMemoryAuditSink
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	s.config = config.GetDefaultConfig()

	var err error
	s.logger, err = logger.NewLogger(s.config)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = context.WithValue(s.ctx, types.CtxTenantID, types.DefaultTenantID)
	s.ctx = context.WithValue(s.ctx, types.CtxUserID, types.DefaultUserID)
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		SubscriptionRepo:  NewInMemorySubscriptionStore(),
		PlanRepo:          NewInMemoryPlanStore(),
		BillingRecordRepo: NewInMemoryBillingRecordStore(),
	}
	s.gateway = NewMockGateway()
	s.auditSink = NewInMemoryAuditSink()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the repository fakes
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetGateway returns the mock payment gateway
func (s *BaseServiceTestSuite) GetGateway() *MockGateway {
	return s.gateway
}

// GetAuditSink returns the capturing audit sink
func (s *BaseServiceTestSuite) GetAuditSink() *InMemoryAuditSink {
	return s.auditSink
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetNow returns the time recorded at test setup
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
