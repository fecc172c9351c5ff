package email

const (
	subjectVehicleApprovedFmt = "Your %s is approved"
	subjectVehicleRejectedFmt = "Your %s needs changes"
)
