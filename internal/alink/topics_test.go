package alink

import "testing"

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "property post",
			got:  topics.PropertyPost("a1b2c3", "socket-01"),
			want: "/sys/a1b2c3/socket-01/thing/event/property/post",
		},
		{
			name: "property post reply",
			got:  topics.PropertyPostReply("a1b2c3", "socket-01"),
			want: "/sys/a1b2c3/socket-01/thing/event/property/post_reply",
		},
		{
			name: "property set",
			got:  topics.PropertySet("a1b2c3", "socket-01"),
			want: "/sys/a1b2c3/socket-01/thing/service/property/set",
		},
		{
			name: "property set reply",
			got:  topics.PropertySetReply("a1b2c3", "socket-01"),
			want: "/sys/a1b2c3/socket-01/thing/service/property/set_reply",
		},
		{
			name: "topo add",
			got:  topics.TopoAdd("gw-pk", "gw-dn"),
			want: "/sys/gw-pk/gw-dn/thing/topo/add",
		},
		{
			name: "topo add reply",
			got:  topics.TopoAddReply("gw-pk", "gw-dn"),
			want: "/sys/gw-pk/gw-dn/thing/topo/add_reply",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
