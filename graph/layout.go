package graph

// Layout constants. Hosts sit on one row at the top, findings on a row
// below, users and processes fan out between and to the right of them.
const (
	hostOriginX = 100
	hostSpacing = 250
	hostY       = 100

	findingOriginX = 150
	findingSpacing = 100
	findingY       = 400

	userOriginX = 400
	userSpacing = 50
	userY       = 250

	processOriginX  = 600
	processSpacingX = 50
	processOriginY  = 200
	processSpacingY = 50

	parentOriginX  = 700
	parentSpacingX = 50
	parentOriginY  = 150
	parentSpacingY = 30
)

func hostPosition(hostIndex int) Position {
	return Position{X: float64(hostOriginX + hostIndex*hostSpacing), Y: hostY}
}

func findingPosition(findingIndex int) Position {
	return Position{X: float64(findingOriginX + findingIndex*findingSpacing), Y: findingY}
}

func userPosition(findingIndex int) Position {
	return Position{X: float64(userOriginX + findingIndex*userSpacing), Y: userY}
}

func processPosition(findingIndex int) Position {
	return Position{
		X: float64(processOriginX + findingIndex*processSpacingX),
		Y: float64(processOriginY + findingIndex*processSpacingY),
	}
}

func parentProcessPosition(findingIndex int) Position {
	return Position{
		X: float64(parentOriginX + findingIndex*parentSpacingX),
		Y: float64(parentOriginY + findingIndex*parentSpacingY),
	}
}
