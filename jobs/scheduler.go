package jobs

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Schedule struct {
	Spec string
	Name string
	Run  func()
}

// Start registers every schedule on a new cron and starts it.
func Start(schedules []Schedule, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	for _, s := range schedules {
		if _, err := c.AddFunc(s.Spec, s.Run); err != nil {
			return nil, err
		}
		log.Info("Cron job scheduled", zap.String("job", s.Name), zap.String("spec", s.Spec))
	}
	c.Start()
	return c, nil
}
