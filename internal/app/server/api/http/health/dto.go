package health

// Input represents the input for health check endpoint
type Input struct{}

// Output represents the output for health check endpoint
type Output struct {
	Body Response
}

// Response reports overall service health plus database reachability.
type Response struct {
	Status   string `json:"status" example:"OK" doc:"Overall health of the service" enum:"OK,Degraded"`
	Database string `json:"database" example:"up" doc:"Reachability of the attendance store" enum:"up,down"`
}
