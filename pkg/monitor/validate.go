package monitor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/m00npl/guardant/pkg/domain"
)

// validate is a package-level, concurrency-safe validator instance.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateService rejects a NestService missing the discriminated sub-config
// its Type requires, or whose sub-config fails field validation. Types with
// no required sub-config (web, tcp, ping, uptime-api, custom) pass through.
func ValidateService(svc domain.NestService) error {
	switch svc.Type {
	case domain.ServiceTypeDNS:
		if svc.DNSConfig == nil {
			return fmt.Errorf("service type %q requires dnsConfig", svc.Type)
		}
		return validateStruct(svc.DNSConfig)
	case domain.ServiceTypeSSL:
		if svc.SSLConfig == nil {
			return fmt.Errorf("service type %q requires sslConfig", svc.Type)
		}
		return validateStruct(svc.SSLConfig)
	case domain.ServiceTypeKeyword:
		if svc.KeywordConfig == nil {
			return fmt.Errorf("service type %q requires keywordConfig", svc.Type)
		}
		return validateStruct(svc.KeywordConfig)
	case domain.ServiceTypePort:
		if svc.PortConfig == nil {
			return fmt.Errorf("service type %q requires portConfig", svc.Type)
		}
		return validateStruct(svc.PortConfig)
	case domain.ServiceTypeHeartbeat:
		if svc.HeartbeatConfig == nil {
			return fmt.Errorf("service type %q requires heartbeatConfig", svc.Type)
		}
		return validateStruct(svc.HeartbeatConfig)
	case domain.ServiceTypeGitHub:
		if svc.GitHub == nil {
			return fmt.Errorf("service type %q requires github config", svc.Type)
		}
		return validateStruct(svc.GitHub)
	case domain.ServiceTypeAWSHealth, domain.ServiceTypeAzureHealth, domain.ServiceTypeGCPHealth:
		if svc.CloudConfig == nil {
			return fmt.Errorf("service type %q requires cloudConfig", svc.Type)
		}
		return validateStruct(svc.CloudConfig)
	case domain.ServiceTypeKubernetes:
		if svc.KubernetesConfig == nil {
			return fmt.Errorf("service type %q requires kubernetesConfig", svc.Type)
		}
		return validateStruct(svc.KubernetesConfig)
	case domain.ServiceTypeDocker:
		if svc.DockerConfig == nil {
			return fmt.Errorf("service type %q requires dockerConfig", svc.Type)
		}
		return validateStruct(svc.DockerConfig)
	default:
		return nil
	}
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("%s: failed on %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("service config validation failed: %s", strings.Join(msgs, "; "))
}
