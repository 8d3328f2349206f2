// Package controller implements the resource form controller: the state
// machine sitting between a field renderer and a named CRUD registry.
//
// Mode is derived from the identity parameters every time an action starts:
// a truthy "id" means edit, anything else means create. Mounting runs the init
// guard and, in edit mode, loads the record through "<name>_show". Submitting
// runs the submit guard and calls "<name>_update" or "<name>_create" with a
// payload that went through TransformRequest and the payload filter. After a
// successful mutation the controller publishes "<name>:refetch", resets its
// dirty baseline and notifies the host.
//
// The phase/touched/baseline bookkeeping is a pure function, Transition, so
// it can be exercised without any renderer or network. Controller drives it
// and owns every side effect.
//
// Guards and remote calls may block; they run without holding the controller
// lock. Overlapping actions are allowed unless WithSerializedActions is set,
// in which case the last write to phase and baseline wins. Unmount flips a
// one-way token that every continuation checks before touching state.
package controller
