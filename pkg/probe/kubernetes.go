package probe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

const shellOutTimeout = 10 * time.Second

// kubernetesProber implements the "kubernetes" service type: shell out to
// kubectl and require every selected pod to be Running. An absent kubectl
// binary is reported down naming the missing binary — the production
// contract recorded as decision 1 in SPEC_FULL.md §D.
type kubernetesProber struct{}

func (p *kubernetesProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	if svc.KubernetesConfig == nil || svc.KubernetesConfig.Namespace == "" {
		return down("kubernetes namespace not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, shellOutTimeout)
	defer cancel()

	args := []string{"get", "pods", "-n", svc.KubernetesConfig.Namespace, "--no-headers"}
	if svc.KubernetesConfig.LabelSelector != "" {
		args = append(args, "-l", svc.KubernetesConfig.LabelSelector)
	}

	start := time.Now()
	out, err := exec.CommandContext(ctx, "kubectl", args...).Output()
	elapsed := time.Since(start)
	if err != nil {
		if isBinaryMissing(err) {
			return down("kubectl binary not found on host")
		}
		if ctx.Err() != nil {
			return down("Request timeout")
		}
		return down(fmt.Sprintf("kubectl failed: %v", err))
	}

	pods := parseKubectlPods(out)
	if len(svc.KubernetesConfig.PodNames) > 0 {
		pods = filterPodsByName(pods, svc.KubernetesConfig.PodNames)
		if len(pods) != len(svc.KubernetesConfig.PodNames) {
			return down("one or more requested pods not found")
		}
	}
	if len(pods) == 0 {
		return down("no pods matched selector")
	}

	for name, status := range pods {
		if status != "Running" {
			return down(fmt.Sprintf("pod %s is %s", name, status))
		}
	}
	return up(fmt.Sprintf("%d pods running", len(pods)), float64(elapsed.Milliseconds()))
}

func parseKubectlPods(out []byte) map[string]string {
	pods := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		pods[fields[0]] = fields[2]
	}
	return pods
}

func filterPodsByName(pods map[string]string, names []string) map[string]string {
	filtered := make(map[string]string)
	for _, n := range names {
		if status, ok := pods[n]; ok {
			filtered[n] = status
		}
	}
	return filtered
}

func isBinaryMissing(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr)
}
