package scheduler

func (s *Scheduler) RunReset()   { s.resetMonth() }
func (s *Scheduler) RunRefresh() { s.refresh() }
