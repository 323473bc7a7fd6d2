package event_mocks

//go:generate mockgen -source=../interfaces.go -destination=event_mocks.go -package=event_mocks
