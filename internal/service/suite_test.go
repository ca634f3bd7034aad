package service

import "github.com/shipdesk/shipdesk/internal/testutil"

// newTestServiceParams wires the in-memory stores of a suite into ServiceParams
func newTestServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetDB(),
		s.GetCache(),
		nil,
		stores.SequenceRepo,
		stores.PlanRepo,
		stores.SetupFeeRepo,
		stores.ChargesRepo,
	)
}
