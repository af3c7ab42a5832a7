package ws

import "time"

type Hubs struct {
	Monitoring *MonitoringHub
	Student    *StudentHub
}

func NewHubs() *Hubs {
	return &Hubs{
		Monitoring: NewMonitoringHub(),
		Student:    NewStudentHub(),
	}
}

// Run starts both hub loops; it returns immediately.
func (h *Hubs) Run() {
	go h.Monitoring.Run()
	go h.Student.Run()
}

// ExamStatusChanged fans a single finalize/cancel out to supervisors and to
// the student concerned.
func (h *Hubs) ExamStatusChanged(courseID, username string, finalized bool) {
	typ := EventExamCancelled
	if finalized {
		typ = EventExamFinalized
	}
	now := time.Now().UTC()
	h.Monitoring.Broadcast(ExamStatusEvent{
		Type:      typ,
		CourseID:  courseID,
		Username:  username,
		Finalized: finalized,
		At:        now,
	})
	h.Student.Notify(username, StudentMessage{Type: typ, CourseID: courseID})
}

// CourseStatusReset reports a bulk cancel to supervisors of the course and
// sends each cancelled student the same notice as a single cancel.
func (h *Hubs) CourseStatusReset(courseID string, usernames []string) {
	h.Monitoring.Broadcast(ExamStatusEvent{
		Type:     EventExamReset,
		CourseID: courseID,
		At:       time.Now().UTC(),
	})
	for _, username := range usernames {
		h.Student.Notify(username, StudentMessage{Type: EventExamCancelled, CourseID: courseID})
	}
}
