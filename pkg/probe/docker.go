package probe

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

// dockerProber implements the "docker" service type: shell out to
// `docker ps` and require every requested container to be present and Up.
type dockerProber struct{}

func (p *dockerProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	if svc.DockerConfig == nil || len(svc.DockerConfig.ContainerNames) == 0 {
		return down("docker container names not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, shellOutTimeout)
	defer cancel()

	start := time.Now()
	out, err := exec.CommandContext(ctx, "docker", "ps", "--format", "{{.Names}}\t{{.Status}}").Output()
	elapsed := time.Since(start)
	if err != nil {
		if isBinaryMissing(err) {
			return down("docker binary not found on host")
		}
		if ctx.Err() != nil {
			return down("Request timeout")
		}
		return down(fmt.Sprintf("docker ps failed: %v", err))
	}

	statuses := parseDockerPS(out)
	for _, name := range svc.DockerConfig.ContainerNames {
		status, present := statuses[name]
		if !present {
			return down(fmt.Sprintf("container %s not present", name))
		}
		if !strings.HasPrefix(status, "Up") {
			return down(fmt.Sprintf("container %s is %s", name, status))
		}
	}

	return up(fmt.Sprintf("%d containers up", len(svc.DockerConfig.ContainerNames)), float64(elapsed.Milliseconds()))
}

func parseDockerPS(out []byte) map[string]string {
	statuses := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "\t", 2)
		if len(parts) != 2 {
			continue
		}
		statuses[parts[0]] = parts[1]
	}
	return statuses
}
