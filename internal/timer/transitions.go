package timer

// transition is one row of the state machine: from × on (× guard) → to, with
// the side effects of entering the new phase.
type transition struct {
	from  State
	on    Trigger
	guard func(*Machine) bool
	to    State
	enter func(*Machine)
}

// Guards on the same from/on pair must be mutually exclusive.
var transitions = []transition{
	{from: StateIdle, on: TriggerStart, to: StatePreparation, enter: (*Machine).enterPreparation},
	{from: StatePreparation, on: TriggerExpire, to: StateWork, enter: (*Machine).enterFirstWork},
	{from: StateWork, on: TriggerExpire, guard: (*Machine).hasMoreWork, to: StateRest, enter: (*Machine).enterRest},
	{from: StateWork, on: TriggerExpire, guard: (*Machine).isLastSet, to: StateCompleted, enter: (*Machine).enterCompleted},
	{from: StateRest, on: TriggerExpire, to: StateWork, enter: (*Machine).enterNextWork},
}

func (m *Machine) lookup(on Trigger) (transition, bool) {
	for _, t := range transitions {
		if t.from != m.state || t.on != on {
			continue
		}
		if t.guard != nil && !t.guard(m) {
			continue
		}
		return t, true
	}
	return transition{}, false
}

// fire applies the first matching row. Unmatched triggers are silent no-ops.
func (m *Machine) fire(on Trigger) (Event, bool) {
	t, ok := m.lookup(on)
	if !ok {
		return Event{}, false
	}
	from := m.state
	m.state = t.to
	t.enter(m)
	return Event{Trigger: on, From: from, To: t.to, Snapshot: m.Snapshot()}, true
}

func (m *Machine) hasMoreWork() bool {
	return !m.isLastSet()
}

func (m *Machine) isLastSet() bool {
	last := len(m.session.Exercises) - 1
	return m.index == last && m.set >= m.session.Exercises[last].Sets
}

func (m *Machine) enterPreparation() {
	m.running = true
	m.index = 0
	m.set = 0
	m.remaining = m.cfg.PreparationSeconds
}

func (m *Machine) enterFirstWork() {
	m.index = 0
	m.set = 1
	m.enterWork()
}

// Rest keeps index and set pointing at the set just finished.
func (m *Machine) enterRest() {
	m.remaining = m.session.Exercises[m.index].RestTime
}

func (m *Machine) enterNextWork() {
	if m.set < m.session.Exercises[m.index].Sets {
		m.set++
	} else {
		m.index++
		m.set = 1
	}
	m.enterWork()
}

func (m *Machine) enterWork() {
	m.remaining = m.cfg.WorkSeconds
	e := m.session.Exercises[m.index]
	m.reporter.ReportExerciseProgress(m.session.ID, e.ID, m.set)
}

func (m *Machine) enterCompleted() {
	m.running = false
	m.remaining = 0
	if !m.completionReported {
		m.completionReported = true
		m.reporter.ReportSessionComplete(m.session.ID)
	}
}
