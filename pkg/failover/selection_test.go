package failover

import "testing"

func endpoints() []ServiceEndpoint {
	return []ServiceEndpoint{
		{ID: "a", Name: "api-a", Region: "us-east", Priority: 1, CurrentLoad: 50, Status: EndpointHealthy},
		{ID: "b", Name: "api-b", Region: "us-east", Priority: 2, CurrentLoad: 10, Status: EndpointHealthy},
		{ID: "c", Name: "api-c", Region: "eu-west", Priority: 0, CurrentLoad: 0, Status: EndpointHealthy},
		{ID: "d", Name: "api-d", Region: "us-east", Priority: 3, CurrentLoad: 5, Status: EndpointUnhealthy},
	}
}

func TestSelectTarget_HighestPriorityPrefersSameRegion(t *testing.T) {
	source := ServiceEndpoint{ID: "a", Region: "us-east"}
	target, err := selectTarget(source, endpoints(), SelectHighestPriority)
	if err != nil {
		t.Fatalf("selectTarget: %v", err)
	}
	if target.ID != "b" {
		t.Fatalf("expected same-region candidate b (unhealthy d excluded, c is eu-west), got %s", target.ID)
	}
}

func TestSelectTarget_LowestLoad(t *testing.T) {
	source := ServiceEndpoint{ID: "a", Region: "us-east"}
	target, err := selectTarget(source, endpoints(), SelectLowestLoad)
	if err != nil {
		t.Fatalf("selectTarget: %v", err)
	}
	if target.ID != "b" {
		t.Fatalf("expected lowest-load same-region candidate b, got %s", target.ID)
	}
}

func TestSelectTarget_FallsBackToAnyRegionWhenNoneMatch(t *testing.T) {
	source := ServiceEndpoint{ID: "z", Region: "ap-south"}
	target, err := selectTarget(source, endpoints(), SelectHighestPriority)
	if err != nil {
		t.Fatalf("selectTarget: %v", err)
	}
	if target.ID != "c" {
		t.Fatalf("expected highest-priority candidate c across all regions, got %s", target.ID)
	}
}

func TestSelectTarget_NoHealthyCandidatesErrors(t *testing.T) {
	source := ServiceEndpoint{ID: "a", Region: "us-east"}
	all := []ServiceEndpoint{
		{ID: "a", Region: "us-east", Status: EndpointHealthy},
		{ID: "d", Region: "us-east", Status: EndpointUnhealthy},
	}
	if _, err := selectTarget(source, all, SelectHighestPriority); err == nil {
		t.Fatal("expected error when no healthy candidates remain")
	}
}

func TestSelectTarget_UnknownStrategyErrors(t *testing.T) {
	source := ServiceEndpoint{ID: "a", Region: "us-east"}
	if _, err := selectTarget(source, endpoints(), "bogus"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
