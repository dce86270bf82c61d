// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services never talk to infrastructure directly; everything
// observable goes through a driven port so tests can substitute
// the memory adapters.
package services
