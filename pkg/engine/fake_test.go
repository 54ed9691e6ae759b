package engine

import (
	"context"
	"strings"

	"github.com/edaconf/edaconf/pkg/controller"
)

// apiCall records one call against the fake transport
type apiCall struct {
	Method   string
	Endpoint string
	ID       any
	Fields   map[string]any
}

// fakeAPI is an in-memory controller. Name filters substring-match, like
// the real controller; other filters match the rendered identifier.
type fakeAPI struct {
	objects map[string][]controller.Object
	calls   []apiCall
	nextID  float64
	fail    map[string]error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		objects: make(map[string][]controller.Object),
		nextID:  100,
		fail:    make(map[string]error),
	}
}

// seed adds an object to a collection without recording a call
func (f *fakeAPI) seed(endpoint string, obj controller.Object) {
	f.objects[endpoint] = append(f.objects[endpoint], obj)
}

// mutations returns only the calls that changed state
func (f *fakeAPI) mutations() []apiCall {
	var out []apiCall
	for _, c := range f.calls {
		if c.Method != "list" {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) ListAll(ctx context.Context, endpoint string, filter map[string]string) ([]controller.Object, error) {
	f.calls = append(f.calls, apiCall{Method: "list", Endpoint: endpoint})
	if err := f.fail["list:"+endpoint]; err != nil {
		return nil, err
	}

	var out []controller.Object
	for _, obj := range f.objects[endpoint] {
		if matchesFilter(obj, filter) {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (f *fakeAPI) Create(ctx context.Context, endpoint string, fields map[string]any) (controller.Object, error) {
	f.calls = append(f.calls, apiCall{Method: "create", Endpoint: endpoint, Fields: fields})
	if err := f.fail["create:"+endpoint]; err != nil {
		return nil, err
	}

	obj := controller.Object{}
	for k, v := range fields {
		obj[k] = v
	}
	f.nextID++
	obj["id"] = f.nextID
	f.objects[endpoint] = append(f.objects[endpoint], obj)
	return obj, nil
}

func (f *fakeAPI) Update(ctx context.Context, endpoint string, id any, fields map[string]any) (controller.Object, error) {
	f.calls = append(f.calls, apiCall{Method: "update", Endpoint: endpoint, ID: id, Fields: fields})
	if err := f.fail["update:"+endpoint]; err != nil {
		return nil, err
	}

	for _, obj := range f.objects[endpoint] {
		if controller.FormatID(obj.ID()) == controller.FormatID(id) {
			for k, v := range fields {
				obj[k] = v
			}
			return obj, nil
		}
	}
	return nil, &controller.APIError{StatusCode: 404, Method: "PATCH", Endpoint: endpoint}
}

func (f *fakeAPI) Delete(ctx context.Context, endpoint string, id any) error {
	f.calls = append(f.calls, apiCall{Method: "delete", Endpoint: endpoint, ID: id})
	if err := f.fail["delete:"+endpoint]; err != nil {
		return err
	}

	objs := f.objects[endpoint]
	for i, obj := range objs {
		if controller.FormatID(obj.ID()) == controller.FormatID(id) {
			f.objects[endpoint] = append(objs[:i:i], objs[i+1:]...)
			return nil
		}
	}
	return &controller.APIError{StatusCode: 404, Method: "DELETE", Endpoint: endpoint}
}

func matchesFilter(obj controller.Object, filter map[string]string) bool {
	for key, want := range filter {
		switch key {
		case "name", "username":
			if !strings.Contains(obj.String(key), want) {
				return false
			}
		default:
			if controller.FormatID(obj[key]) != want {
				return false
			}
		}
	}
	return true
}
