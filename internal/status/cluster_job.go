package status

// ClusterJob is a job as observed by a scheduler.
// It is immutable once constructed.
type ClusterJob struct {
	id     string
	status Status
}

// NewClusterJob pairs a scheduler-assigned id with its observed status.
func NewClusterJob(id string, s Status) *ClusterJob {
	return &ClusterJob{id: id, status: s}
}

// ID returns the scheduler-assigned id.
func (c *ClusterJob) ID() string {
	return c.id
}

// Name is an alias of ID.
func (c *ClusterJob) Name() string {
	return c.id
}

// Status returns the status reported by the scheduler.
func (c *ClusterJob) Status() Status {
	return c.status
}

func (c *ClusterJob) String() string {
	return c.id
}
