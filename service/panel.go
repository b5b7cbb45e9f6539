package service

import (
	"context"

	"github.com/zenvpn/zen-console/client"
	"github.com/zenvpn/zen-console/logger"
	"github.com/zenvpn/zen-console/model"
)

// PanelService covers the panel-wide reads that don't belong to one
// resource: the dashboard summary and the console's own log buffer.
type PanelService struct {
	api *client.Client
}

// Dashboard returns the fleet summary in its complete shape: aggregate
// stats, per-node status rows, and the traffic chart.
func (s *PanelService) Dashboard(ctx context.Context) (*model.DashboardData, error) {
	return s.api.GetDashboard(ctx)
}

// Logs returns up to count recent console log entries at or below level.
func (s *PanelService) Logs(count int, level string) []string {
	return logger.GetLogs(count, level)
}
