package commissions

var commissionTransitions = map[CommissionStatus][]CommissionStatus{
	CommissionOpen:             {CommissionInProgress, CommissionCancelled},
	CommissionAwaitingProposal: {CommissionInProgress, CommissionCancelled},
	CommissionInProgress:       {CommissionCompleted, CommissionCancelled},
}

var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectAwaitingPayment:       {ProjectInProgress, ProjectCancelled},
	ProjectInProgress:            {ProjectPendingProgressReport, ProjectPendingFinalDelivery, ProjectCancelled},
	ProjectPendingProgressReport: {ProjectInProgress, ProjectCancelled},
	ProjectPendingFinalDelivery:  {ProjectPendingClientApproval, ProjectCompleted, ProjectCancelled},
	ProjectPendingClientApproval: {ProjectCompleted, ProjectCancelled},
}

var updateTransitions = map[UpdateStatus][]UpdateStatus{
	UpdatePending:          {UpdateSubmitted},
	UpdateSubmitted:        {UpdateApproved, UpdateRequiresRevision},
	UpdateRequiresRevision: {UpdateSubmitted},
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (s CommissionStatus) CanTransition(to CommissionStatus) bool {
	return contains(commissionTransitions[s], to)
}

func (s CommissionStatus) Terminal() bool {
	return len(commissionTransitions[s]) == 0
}

func (s ProjectStatus) CanTransition(to ProjectStatus) bool {
	return contains(projectTransitions[s], to)
}

func (s ProjectStatus) Terminal() bool {
	return len(projectTransitions[s]) == 0
}

func (s UpdateStatus) CanTransition(to UpdateStatus) bool {
	return contains(updateTransitions[s], to)
}

// CommissionSources lists the states from which to is reachable.
func CommissionSources(to CommissionStatus) []CommissionStatus {
	var out []CommissionStatus
	for from, targets := range commissionTransitions {
		if contains(targets, to) {
			out = append(out, from)
		}
	}
	return out
}

// ProjectSources lists the states from which to is reachable.
func ProjectSources(to ProjectStatus) []ProjectStatus {
	var out []ProjectStatus
	for from, targets := range projectTransitions {
		if contains(targets, to) {
			out = append(out, from)
		}
	}
	return out
}

// ProjectStatusFor maps an update status change to the project status it
// implies. ok is false when the change leaves the project where it is.
func ProjectStatusFor(t UpdateType, s UpdateStatus) (ProjectStatus, bool) {
	switch {
	case t == UpdateProgressReport && s == UpdateSubmitted:
		return ProjectPendingProgressReport, true
	case t == UpdateProgressReport && s == UpdateApproved:
		return ProjectInProgress, true
	case t == UpdateFinalDelivery && s == UpdateSubmitted:
		return ProjectPendingFinalDelivery, true
	case t == UpdateFinalDelivery && s == UpdateApproved:
		return ProjectCompleted, true
	}
	return "", false
}

func (t UpdateType) Valid() bool {
	return t == UpdateProgressReport || t == UpdateFinalDelivery
}
