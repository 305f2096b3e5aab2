package monitor

import (
	"testing"

	"github.com/m00npl/guardant/pkg/domain"
)

func TestValidateService_MissingDiscriminatedConfigFails(t *testing.T) {
	svc := domain.NestService{ID: "svc1", Type: domain.ServiceTypeSSL}
	if err := ValidateService(svc); err == nil {
		t.Fatal("expected error for ssl service with no sslConfig")
	}
}

func TestValidateService_PresentConfigPasses(t *testing.T) {
	svc := domain.NestService{ID: "svc1", Type: domain.ServiceTypeSSL, SSLConfig: &domain.SSLConfig{WarningDays: 14}}
	if err := ValidateService(svc); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateService_InvalidFieldFails(t *testing.T) {
	svc := domain.NestService{ID: "svc1", Type: domain.ServiceTypePort, PortConfig: &domain.PortConfig{}}
	if err := ValidateService(svc); err != nil {
		t.Fatalf("port config has no required fields, expected pass, got %v", err)
	}

	ghSvc := domain.NestService{ID: "svc2", Type: domain.ServiceTypeGitHub, GitHub: &domain.GitHubConfig{}}
	if err := ValidateService(ghSvc); err == nil {
		t.Fatal("expected error for github config with empty token")
	}
}

func TestValidateService_TypesWithoutRequiredConfigPass(t *testing.T) {
	for _, typ := range []domain.ServiceType{
		domain.ServiceTypeWeb, domain.ServiceTypeTCP, domain.ServiceTypePing,
		domain.ServiceTypeUptimeAPI, domain.ServiceTypeCustom,
	} {
		svc := domain.NestService{ID: "svc1", Type: typ}
		if err := ValidateService(svc); err != nil {
			t.Fatalf("type %s: expected no error, got %v", typ, err)
		}
	}
}
