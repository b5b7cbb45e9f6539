// Package job provides the background jobs run in watch mode, currently the
// periodic node liveness sweep.
package job

import (
	"context"
	"time"

	"github.com/zenvpn/zen-console/logger"
	"github.com/zenvpn/zen-console/model"
	"github.com/zenvpn/zen-console/service"
)

// CheckNodeStatusJob probes every node's management agent on a schedule and
// records the result in the liveness cache. Probe failures degrade to
// offline; a node flapping between sweeps is logged.
type CheckNodeStatusJob struct {
	services *service.Services
	timeout  time.Duration

	lastState map[uint]model.NodeState
}

// NewCheckNodeStatusJob creates the liveness sweep job.
func NewCheckNodeStatusJob(services *service.Services, timeout time.Duration) *CheckNodeStatusJob {
	return &CheckNodeStatusJob{
		services:  services,
		timeout:   timeout,
		lastState: make(map[uint]model.NodeState),
	}
}

// Run performs one sweep. Implements cron.Job. A zero timeout runs the
// sweep unbounded, matching the client's timeout semantics.
func (j *CheckNodeStatusJob) Run() {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	nodes, err := j.services.Nodes.List(ctx)
	if err != nil {
		logger.Warningf("node status sweep: listing nodes failed: %v", err)
		return
	}

	for _, n := range nodes {
		state := j.services.Nodes.Probe(ctx, n.ID)
		if prev, ok := j.lastState[n.ID]; ok && prev != state {
			logger.Infof("node %s (%d) went %s", n.Name, n.ID, state)
		}
		j.lastState[n.ID] = state
	}
}
