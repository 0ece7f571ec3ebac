package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	obsSchema := compile("obs.schema.json")
	actSchema := compile("act.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "agent_name":"bot1",
	  "role":"GUARD"
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "agent_id":"A1",
	  "resume_token":"6c2e9d0a-9f2a-4f3e-8c1d-2b7a5e4d3f10",
	  "world_params":{
	    "tick_rate_hz":5,
	    "obs_radius":20,
	    "cell_size":10,
	    "bounds":{"min":[-128,-16,-128],"max":[128,16,128]},
	    "seed":1337
	  }
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var obs any
	_ = json.Unmarshal([]byte(`{
	  "type":"OBS",
	  "protocol_version":"1.0",
	  "tick":42,
	  "agent_id":"A1",
	  "self":{"pos":[1.5,0,2.5],"role":"LABORER","activity":"MOVING","speed":1.4,"dest":[10,0,10]},
	  "neighbors":[{"id":"A2","type":"AGENT","role":"GUARD","pos":[3,0,2],"activity":"IDLE"}],
	  "events":[{"kind":"ARRIVE","tick":41}],
	  "tasks":[{"task_id":"K1","kind":"MOVE_TO","progress":0.5,"target":[10,0,10]}]
	}`), &obs)
	validate(obsSchema, obs)

	var act any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "tick":42,
	  "agent_id":"A1",
	  "tasks":[
	    {"id":"K1","type":"MOVE_TO","target":[10,0,10]},
	    {"id":"K2","type":"SET_MODIFIERS","mobility":0.5,"terrain":1.0}
	  ],
	  "cancel":[]
	}`), &act)
	validate(actSchema, act)
}
