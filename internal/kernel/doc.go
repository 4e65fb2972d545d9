// Package kernel is the checked boundary in front of the gravity core.
//
// Hosts (a render loop, a game tick, a foreign-function shim) call a
// [Kernel] with plain slices. The kernel rejects contract violations with an
// error wrapping [dynamo.ErrContractViolation] before any computation runs,
// picks the stepper dedicated to the ensemble size, and reports numeric
// breakdown only through the completed-step count:
//
//	k := kernel.New(kernel.WithSupportedSizes(3))
//	done, err := k.TryLeap(100, 60, masses, positions, velocities)
//	if err != nil {
//	    return err // bad input, nothing was touched
//	}
//	if done < 100 {
//	    // positions/velocities hold the state after step done; retry with a smaller dt
//	}
package kernel
