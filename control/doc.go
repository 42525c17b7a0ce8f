// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime observability layer: probe registration and snapshot export over
// the memory pool and its reclamation task.
package control
